package internal

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// iframeSandbox lets the previewed document run scripts but keeps it in a
// unique origin with no top navigation, popups or forms.
const iframeSandbox = "allow-scripts"

// previewCSP is inherited by the srcdoc frame, so it only restricts what the
// sandbox attribute does not already cover.
const previewCSP = "frame-ancestors 'none'; base-uri 'none'"

// PreviewRenderer holds the sandboxed document for the selected HTML block
type PreviewRenderer struct {
	mu      sync.RWMutex
	active  bool
	blockID string
	doc     string
	version int
}

// NewPreviewRenderer creates an inactive renderer
func NewPreviewRenderer() *PreviewRenderer {
	return &PreviewRenderer{}
}

// Render updates the preview for the selected block. The renderer is active
// only when the block is HTML and the preview is visible. It reports whether
// the rendered output changed.
func (p *PreviewRenderer) Render(block *CodeBlock, visible bool) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if block == nil || !block.IsHTML || !visible {
		if !p.active {
			return false
		}
		p.active = false
		p.blockID = ""
		p.doc = ""
		p.version++
		return true
	}

	if p.active && p.blockID == block.ID && p.doc == block.Code {
		return false
	}

	p.active = true
	p.blockID = block.ID
	p.doc = block.Code
	p.version++
	return true
}

// Active reports whether a document is being previewed
func (p *PreviewRenderer) Active() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.active
}

// Version increases on every change of the rendered output
func (p *PreviewRenderer) Version() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.version
}

// Document returns the wrapper page for the current state
func (p *PreviewRenderer) Document() string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if !p.active {
		return wrapperPage(p.version, `<p class="idle">No HTML block selected for preview.</p>`)
	}
	frame := fmt.Sprintf(`<iframe title="preview" sandbox="%s" referrerpolicy="no-referrer" srcdoc="%s"></iframe>`,
		iframeSandbox, html.EscapeString(p.doc))
	return wrapperPage(p.version, frame)
}

// ServeHTTP serves the wrapper page at / and the render version at /version
func (p *PreviewRenderer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/":
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Content-Security-Policy", previewCSP)
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Cache-Control", "no-store")
		_, _ = fmt.Fprint(w, p.Document())
	case "/version":
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		_, _ = fmt.Fprint(w, strconv.Itoa(p.Version()))
	default:
		http.NotFound(w, r)
	}
}

func wrapperPage(version int, body string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>codemate preview</title>
<style>
html, body { margin: 0; height: 100%%; font-family: sans-serif; }
iframe { border: 0; width: 100%%; height: 100%%; }
.idle { color: #777; text-align: center; margin-top: 40vh; }
</style>
</head>
<body>
%s
<script>
(function () {
  var seen = %d;
  setInterval(function () {
    fetch("/version", {cache: "no-store"}).then(function (r) { return r.text(); }).then(function (v) {
      if (parseInt(v, 10) !== seen) { location.reload(); }
    }).catch(function () {});
  }, 1000);
})();
</script>
</body>
</html>
`, body, version)
}

// PreviewServer serves a PreviewRenderer on a local listener
type PreviewServer struct {
	srv *http.Server
	ln  net.Listener
}

// StartPreviewServer listens on addr (for example 127.0.0.1:0) and serves
// the renderer in the background.
func StartPreviewServer(addr string, renderer *PreviewRenderer) (*PreviewServer, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	srv := &http.Server{
		Handler:           renderer,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			LogError("Preview server stopped: %v", err)
		}
	}()

	LogDebug("Preview server listening on %s", ln.Addr())
	return &PreviewServer{srv: srv, ln: ln}, nil
}

// URL returns the address of the preview page
func (s *PreviewServer) URL() string {
	return "http://" + s.ln.Addr().String() + "/"
}

// Shutdown stops the server
func (s *PreviewServer) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
