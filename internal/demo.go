package internal

const demoPrompt = "Create a simple HTML page with a blue background"

const demoReply = "Here's a simple HTML page with a blue background:\n\n" +
	"```html\n" +
	`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Blue Background Page</title>
    <style>
        body {
            background-color: #4A90E2;
            font-family: Arial, sans-serif;
            margin: 0;
            padding: 20px;
            color: white;
            min-height: 100vh;
            display: flex;
            align-items: center;
            justify-content: center;
        }
        .container {
            text-align: center;
            background-color: rgba(255, 255, 255, 0.1);
            padding: 40px;
            border-radius: 15px;
        }
    </style>
</head>
<body>
    <div class="container">
        <h1>Welcome to My Blue Page</h1>
        <p>This is a simple HTML page with a blue background and some styling.</p>
    </div>
</body>
</html>
` + "```\n\n" +
	"This page features:\n" +
	"- A blue background\n" +
	"- Centered content in a translucent card\n" +
	"- Responsive layout"

// DemoTurns returns the exchange shown when the backend is unreachable
func DemoTurns() []Turn {
	return []Turn{
		NewTurn(demoPrompt, true),
		NewTurn(demoReply, false),
	}
}
