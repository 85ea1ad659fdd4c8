package utils

// Commit is set at build time with -ldflags "-X owlet-mcp/utils.Commit=<sha>".
var Commit = "dev"
