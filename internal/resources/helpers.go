package resources

import (
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

func jsonContents(uri string, data []byte) []mcp.ResourceContents {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}
}

// errorResource returns a resource with an error message.
func errorResource(uri, message string) []mcp.ResourceContents {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "text/plain",
			Text:     fmt.Sprintf("Error: %s", message),
		},
	}
}
