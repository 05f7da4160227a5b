package imap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	engineErrors "github.com/inboxpilot/mailsync/internal/errors"
	"github.com/inboxpilot/mailsync/interfaces"
)

func folder(name, delimiter string, attributes ...string) *interfaces.FolderNode {
	return &interfaces.FolderNode{
		Name:       name,
		Delimiter:  delimiter,
		Attributes: attributes,
		Children:   make(map[string]*interfaces.FolderNode),
	}
}

func tree(children ...*interfaces.FolderNode) *interfaces.FolderNode {
	root := &interfaces.FolderNode{Children: make(map[string]*interfaces.FolderNode)}
	for _, child := range children {
		segments := child.Name
		if child.Delimiter != "" {
			parts := splitPath(child.Name, child.Delimiter)
			segments = parts[len(parts)-1]
		}
		root.Children[segments] = child
	}
	return root
}

func splitPath(path, delimiter string) []string {
	var parts []string
	current := ""
	for _, r := range path {
		if string(r) == delimiter {
			parts = append(parts, current)
			current = ""
			continue
		}
		current += string(r)
	}
	return append(parts, current)
}

func TestFindSentFolder_SpecialUseAttribute(t *testing.T) {
	inbox := folder("INBOX", ".")
	sent := folder("INBOX.Sent Items", ".", AttrSent)
	inbox.Children["Sent Items"] = sent

	root := tree(inbox)

	name, err := FindSentFolder(root, false)
	require.NoError(t, err)
	assert.Equal(t, "INBOX.Sent Items", name)
}

func TestFindSentFolder_AttributeCaseInsensitive(t *testing.T) {
	root := tree(folder("Gesendet", "/", "\\sent"))

	name, err := FindSentFolder(root, false)
	require.NoError(t, err)
	assert.Equal(t, "Gesendet", name)
}

func TestFindSentFolder_AttributeBeatsName(t *testing.T) {
	root := tree(
		folder("Sent", "/"),
		folder("Outgoing", "/", AttrSent),
	)

	name, err := FindSentFolder(root, false)
	require.NoError(t, err)
	assert.Equal(t, "Outgoing", name)
}

func TestFindSentFolder_NameCandidates(t *testing.T) {
	root := tree(
		folder("INBOX", "/"),
		folder("Sent Messages", "/"),
	)

	name, err := FindSentFolder(root, false)
	require.NoError(t, err)
	assert.Equal(t, "Sent Messages", name)
}

func TestFindSentFolder_TerminalSegmentMatch(t *testing.T) {
	archive := folder("Archive", "/")
	nested := folder("Archive/Sent", "/")
	archive.Children["Sent"] = nested

	root := tree(archive)

	name, err := FindSentFolder(root, false)
	require.NoError(t, err)
	assert.Equal(t, "Archive/Sent", name)
}

func TestFindSentFolder_NotFound(t *testing.T) {
	root := tree(folder("INBOX", "/"), folder("Drafts", "/"))

	_, err := FindSentFolder(root, false)
	require.Error(t, err)
	assert.ErrorIs(t, err, engineErrors.ErrSentFolderNotFound)
}

func TestFindSentFolder_LegacyFallback(t *testing.T) {
	root := tree(folder("INBOX", "/"))

	name, err := FindSentFolder(root, true)
	require.NoError(t, err)
	assert.Equal(t, "Sent", name)
}

func TestFindSentFolder_NilTree(t *testing.T) {
	_, err := FindSentFolder(nil, false)
	require.Error(t, err)

	name, err := FindSentFolder(nil, true)
	require.NoError(t, err)
	assert.Equal(t, "Sent", name)
}
