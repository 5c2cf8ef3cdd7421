package lsp

import (
	"path/filepath"
	"strings"

	"github.com/adalundhe/scout/core/detect"
)

// Selector matches files to language server definitions using file extensions
// and project root markers.
type Selector struct {
	servers []*ServerDefinition
}

// NewSelector returns a Selector over the builtin server definitions.
func NewSelector() *Selector {
	return &Selector{servers: BuiltinServers}
}

// NewSelectorWith returns a Selector over a custom definition set.
func NewSelectorWith(servers []*ServerDefinition) *Selector {
	return &Selector{servers: servers}
}

// SelectServer returns the first definition covering filePath under root, or
// nil when no definition matches.
func (s *Selector) SelectServer(root, filePath string) *ServerDefinition {
	servers := s.SelectServers(root, filePath)
	if len(servers) == 0 {
		return nil
	}
	return servers[0]
}

// SelectServers returns every definition covering filePath under root.
func (s *Selector) SelectServers(root, filePath string) []*ServerDefinition {
	ext := normalizeExt(filePath)
	var matches []*ServerDefinition

	for _, srv := range s.servers {
		if matchesExt(srv, ext) && hasRootMarker(srv, root) {
			matches = append(matches, srv)
		}
	}

	return matches
}

// SelectServerByLanguageID returns the first definition for a language ID.
func (s *Selector) SelectServerByLanguageID(langID string) *ServerDefinition {
	for _, srv := range s.servers {
		for _, supported := range srv.LanguageIDs {
			if supported == langID {
				return srv
			}
		}
	}
	return nil
}

func normalizeExt(filePath string) string {
	return strings.ToLower(filepath.Ext(filePath))
}

func matchesExt(srv *ServerDefinition, ext string) bool {
	for _, supported := range srv.Extensions {
		if supported == ext {
			return true
		}
	}
	return false
}

func hasRootMarker(srv *ServerDefinition, root string) bool {
	if len(srv.RootMarkers) == 0 {
		return true
	}
	return detect.FileExists(root, srv.RootMarkers...)
}
