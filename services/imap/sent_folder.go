package imap

import (
	"sort"
	"strings"

	engineErrors "github.com/inboxpilot/mailsync/internal/errors"
	"github.com/inboxpilot/mailsync/interfaces"
)

// AttrSent marks the mailbox a server designates for sent mail
// (RFC 6154 special-use).
const AttrSent = "\\Sent"

// sentFolderCandidates are common names for the sent mailbox across
// providers, checked in order when no special-use attribute is advertised.
var sentFolderCandidates = []string{
	"Sent",
	"Sent Items",
	"SENT",
	"Sent Messages",
	"INBOX.Sent",
	"INBOX.Sent Items",
}

// FindSentFolder resolves the sent mailbox from a folder tree. The
// special-use attribute wins when present; otherwise well-known names are
// tried against full paths and terminal segments. With legacyFallback the
// literal name "Sent" is assumed as a last resort instead of failing.
func FindSentFolder(root *interfaces.FolderNode, legacyFallback bool) (string, error) {
	if root != nil {
		if name := findByAttribute(root); name != "" {
			return name, nil
		}

		paths := flattenPaths(root)
		for _, candidate := range sentFolderCandidates {
			for _, path := range paths {
				if path == candidate {
					return path, nil
				}
			}
		}
		for _, candidate := range sentFolderCandidates {
			for _, path := range paths {
				if terminalSegment(root, path) == candidate {
					return path, nil
				}
			}
		}
	}

	if legacyFallback {
		return "Sent", nil
	}
	return "", engineErrors.ErrSentFolderNotFound
}

func findByAttribute(node *interfaces.FolderNode) string {
	for _, attr := range node.Attributes {
		if strings.EqualFold(attr, AttrSent) {
			return node.Name
		}
	}
	for _, key := range sortedChildKeys(node) {
		if name := findByAttribute(node.Children[key]); name != "" {
			return name
		}
	}
	return ""
}

func flattenPaths(root *interfaces.FolderNode) []string {
	var paths []string
	var walk func(node *interfaces.FolderNode)
	walk = func(node *interfaces.FolderNode) {
		if node.Name != "" {
			paths = append(paths, node.Name)
		}
		for _, key := range sortedChildKeys(node) {
			walk(node.Children[key])
		}
	}
	walk(root)
	return paths
}

func terminalSegment(root *interfaces.FolderNode, path string) string {
	node := findNode(root, path)
	if node == nil {
		return path
	}
	if node.Delimiter == "" {
		return path
	}
	segments := strings.Split(path, node.Delimiter)
	return segments[len(segments)-1]
}

func findNode(node *interfaces.FolderNode, path string) *interfaces.FolderNode {
	if node.Name == path {
		return node
	}
	for _, child := range node.Children {
		if found := findNode(child, path); found != nil {
			return found
		}
	}
	return nil
}

func sortedChildKeys(node *interfaces.FolderNode) []string {
	keys := make([]string, 0, len(node.Children))
	for key := range node.Children {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
