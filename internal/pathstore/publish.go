package pathstore

import (
	"context"
	"fmt"

	"github.com/dgallion1/docoutline/internal/doctree"
	"github.com/dgallion1/docoutline/internal/hierarchy"
)

// Publisher mirrors finished outlines into pathstore. Each document lives under
// outlines/{doc}; each node under outlines/{doc}/{node} with a link from its parent.
type Publisher struct {
	client *Client
	source string
}

func NewPublisher(client *Client, source string) *Publisher {
	return &Publisher{client: client, source: source}
}

// DocKey is the pathstore key of a document.
func DocKey(docID string) string {
	return "outlines/" + docID
}

// NodeKey is the pathstore key of one node of a document.
func NodeKey(docID, nodeID string) string {
	return DocKey(docID) + "/" + nodeID
}

// Publish writes the document node, every outline node and the parent edges.
// It stops at the first error and reports how many nodes were written.
func (p *Publisher) Publish(ctx context.Context, docID, title string, forest doctree.Forest) (int, error) {
	docKey := DocKey(docID)
	err := p.client.PutNode(ctx, docKey, NodeRequest{
		Value:     map[string]any{"title": title, "nodes": forest.Count()},
		MergeMode: "replace",
		Source:    p.source,
	})
	if err != nil {
		return 0, err
	}

	written := 0
	var walk func(n *doctree.Node, parentKey string, depth int) error
	walk = func(n *doctree.Node, parentKey string, depth int) error {
		key := NodeKey(docID, n.ID)
		rec := hierarchy.FlatOf(n, depth)

		if err := p.client.PutNode(ctx, key, NodeRequest{Value: rec, MergeMode: "replace", Source: p.source}); err != nil {
			return err
		}
		written++
		link := LinkRequest{From: parentKey, To: key, Weight: 1, Summary: "contains " + n.Label()}
		if err := p.client.PutLink(ctx, link); err != nil {
			return err
		}
		for _, c := range n.Children {
			if err := walk(c, key, depth+1); err != nil {
				return err
			}
		}
		return nil
	}

	for _, root := range forest {
		if err := walk(root, docKey, 0); err != nil {
			return written, fmt.Errorf("publish %s: %w", docID, err)
		}
	}
	return written, nil
}

// Unpublish removes a document and everything under it.
func (p *Publisher) Unpublish(ctx context.Context, docID string) error {
	return p.client.DeleteNode(ctx, DocKey(docID), true)
}
