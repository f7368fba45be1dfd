package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverInstructions = `tflies tracks a tree of tasks and the time spent on each one.

Core concepts:
- Task ids encode their position in the tree. 0 is the root, 10 is its first child, 1011 is the second child of 10.
- Moving a task renumbers it and its whole subtree. Always use the id returned by move_task afterwards.
- Only one task runs at a time. start_task opens a time piece; halt_task closes it and adds the time to the task.

Typical workflow:
1) Orient: call list_tasks (root, depth 1) or current_task.
2) Plan: create_task under the right parent; update_task to adjust fields.
3) Work: start_task, then halt_task with a short description and an efficiency rating.
4) Finish: set_status done, or delete_task once it has no sub-tasks.

Docs:
- tflies://docs/ids (how task ids are built)
`

type docResource struct {
	URI         string
	Name        string
	Title       string
	Description string
	Content     string
}

var docResources = []docResource{
	{
		URI:         "tflies://docs/ids",
		Name:        "docs_ids",
		Title:       "tflies task ids",
		Description: "How hierarchical task ids encode a path from the root.",
		Content: `# Task ids

An id is a string of decimal segments, one per level below the root.
Each segment is a length digit L (1 to 9) followed by L digits holding
the sibling index, with no leading zeros.

| id | path |
|---|---|
| 0 | root |
| 10 | root, child 0 |
| 11 | root, child 1 |
| 1010 | root, child 0, child 0 |
| 101011 | root, child 0, child 0, child 1 |
| 210 | root, child 10 |
| 20 | invalid: the segment promises two digits but has one |
| 201 | invalid: segments have no leading zeros |

Ids are signed 64-bit integers, which bounds both depth and width.
Deleting a task frees its slot; the next create under the same parent
reuses the lowest free index.
`,
	},
}

func registerDocResources(server *sdkmcp.Server) {
	for _, doc := range docResources {
		server.AddResource(&sdkmcp.Resource{
			URI:         doc.URI,
			Name:        doc.Name,
			Title:       doc.Title,
			Description: doc.Description,
			MIMEType:    "text/markdown",
			Size:        int64(len(doc.Content)),
		}, func(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
			uri := doc.URI
			if req != nil && req.Params != nil && req.Params.URI != "" {
				uri = req.Params.URI
			}
			return &sdkmcp.ReadResourceResult{
				Contents: []*sdkmcp.ResourceContents{{
					URI:      uri,
					MIMEType: "text/markdown",
					Text:     doc.Content,
				}},
			}, nil
		})
	}
}
