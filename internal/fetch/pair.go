package fetch

import (
	"context"
	"fmt"
	"maps"
	"net/http"
	"os"
	"path/filepath"
	"slices"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/kx0101/subdiff/internal/logging"
	"github.com/kx0101/subdiff/internal/matrix"
	"github.com/kx0101/subdiff/internal/models"
)

// Pair fetches a case from both services.
type Pair struct {
	Candidate *Client
	Reference *Client

	// Reload makes Prepare ask both services to re-read their configuration.
	Reload bool

	// OverlayDir receives <scenario>.yaml with the scenario's preference
	// overrides for the tooling that rewrites the services' configuration.
	// Empty disables it.
	OverlayDir string
}

func (p *Pair) client(side models.Side) *Client {
	if side == models.Reference {
		return p.Reference
	}

	return p.Candidate
}

// Fetch requests c from one side. The reference walks the case's fallback
// parameter sets while it does not answer 200.
func (p *Pair) Fetch(ctx context.Context, side models.Side, c matrix.Case) models.Response {
	client := p.client(side)

	if side != models.Reference || len(c.ReferenceFallback) == 0 {
		return client.Get(ctx, c.Path, c.Params)
	}

	var resp models.Response
	for _, params := range c.ReferenceFallback {
		resp = client.Get(ctx, c.Path, params)
		if resp.Status == http.StatusOK {
			break
		}
	}

	return resp
}

// Prepare reloads both services after an external tool applied the
// scenario's preferences.
func (p *Pair) Prepare(ctx context.Context, sc matrix.Scenario) error {
	if len(sc.Pref) > 0 {
		logging.L.Info("scenario preferences",
			zap.String("scenario", sc.Name),
			zap.Strings("keys", slices.Sorted(maps.Keys(sc.Pref))),
		)

		if err := p.writeOverlay(sc); err != nil {
			return err
		}
	}

	if !p.Reload {
		return nil
	}

	for _, side := range models.Sides {
		resp := p.client(side).Get(ctx, "/readconf", nil)
		if resp.FetchFailed() {
			return fmt.Errorf("reloading %s for scenario %q: %s", side, sc.Name, resp.Err)
		}
		if resp.Status != http.StatusOK {
			return fmt.Errorf("reloading %s for scenario %q: status %d", side, sc.Name, resp.Status)
		}
	}

	logging.L.Info("services reloaded", zap.String("scenario", sc.Name))
	return nil
}

func (p *Pair) writeOverlay(sc matrix.Scenario) error {
	if p.OverlayDir == "" {
		return nil
	}

	data, err := yaml.Marshal(sc.Overlay())
	if err != nil {
		return fmt.Errorf("encoding overlay for scenario %q: %w", sc.Name, err)
	}

	if err := os.MkdirAll(p.OverlayDir, 0o755); err != nil {
		return fmt.Errorf("creating overlay dir: %w", err)
	}

	path := filepath.Join(p.OverlayDir, sc.Name+".yaml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing overlay for scenario %q: %w", sc.Name, err)
	}

	return nil
}
