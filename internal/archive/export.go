// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package archive

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/gvivero-alarcon/planning-app/internal/planerr"
	"github.com/gvivero-alarcon/planning-app/internal/report"
)

// Export writes the run to dir/<id>.<format> and returns the path. The
// format is "yaml" or "json".
func (s *Store) Export(ctx context.Context, id, format, dir string) (string, error) {
	format = strings.ToLower(format)
	if format == "yml" {
		format = "yaml"
	}
	if format != "yaml" && format != "json" {
		return "", planerr.Configuration("unsupported export format %q, want yaml or json", format)
	}

	run, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}

	path := filepath.Join(dir, run.ID+"."+format)
	if format == "json" {
		err = report.WriteJSON(path, run)
	} else {
		err = report.WriteYAML(path, run)
	}
	if err != nil {
		return "", err
	}
	s.logger.Debug("exported run", "id", id, "path", path)
	return path, nil
}
