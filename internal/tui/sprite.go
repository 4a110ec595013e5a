package tui

// spriteFrames are the two explorer poses, drawn centered on the track position.
var spriteFrames = [2][]string{
	{
		" o ",
		"/|\\",
		"/ \\",
	},
	{
		" o ",
		"/|\\",
		" | ",
	},
}
