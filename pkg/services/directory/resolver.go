package directory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/bc-tools/sales-board/pkg/models/domain"
	"github.com/samber/lo"
)

// ErrUnavailable is returned when the clinic directory cannot be fetched.
// Callers decide the fallback policy; DefaultRoster is the usual choice.
var ErrUnavailable = errors.New("clinic directory unavailable")

// DefaultRoster is the static fallback used when the directory endpoint
// is down. IDs match the upstream directory.
var DefaultRoster = []domain.Clinic{
	{ID: 2, Name: "Beauty Center Bantul"},
	{ID: 3, Name: "Beauty Center Godean"},
	{ID: 4, Name: "Beauty Center Kaliurang"},
	{ID: 5, Name: "Beauty Center Kotagede"},
	{ID: 6, Name: "Beauty Center Maguwoharjo"},
	{ID: 7, Name: "Beauty Center Muntilan"},
	{ID: 8, Name: "Beauty Center Parangtritis"},
	{ID: 10, Name: "Beauty Center Prambanan"},
	{ID: 11, Name: "Beauty Center Wates"},
	{ID: 14, Name: "Rumah Cantik Rajawali"},
}

// Clinics in the leaderboard program carry one of these brand prefixes.
var programBrands = []string{"Beauty Center", "Rumah Cantik"}

// Decommissioned locations excluded from the program by name.
var closedLocations = []string{"Piyungan"}

type Resolver interface {
	// Resolve fetches the clinic directory with a single attempt.
	// Any upstream failure is reported as ErrUnavailable.
	Resolve(ctx context.Context) ([]domain.Clinic, error)
}

type resolver struct {
	client  *http.Client
	baseURL string
}

func NewResolver(client *http.Client, baseURL string) Resolver {
	if client == nil {
		client = http.DefaultClient
	}
	return &resolver{client: client, baseURL: strings.TrimRight(baseURL, "/")}
}

func (r *resolver) Resolve(ctx context.Context) ([]domain.Clinic, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+"/klinik", nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	clinics, err := decodeDirectory(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return clinics, nil
}

type directoryEntry struct {
	ID         int    `json:"id"`
	NamaClinic string `json:"nama_clinic"`
	Name       string `json:"name"`
}

func (e directoryEntry) displayName() string {
	if e.NamaClinic != "" {
		return e.NamaClinic
	}
	return e.Name
}

// decodeDirectory accepts both a bare JSON array and an object wrapping
// one under "data" or "clinics"; the upstream has served both shapes.
func decodeDirectory(body []byte) ([]domain.Clinic, error) {
	var entries []directoryEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		var wrapped struct {
			Data    []directoryEntry `json:"data"`
			Clinics []directoryEntry `json:"clinics"`
		}
		if err := json.Unmarshal(body, &wrapped); err != nil {
			return nil, fmt.Errorf("malformed directory body: %w", err)
		}
		entries = wrapped.Data
		if len(entries) == 0 {
			entries = wrapped.Clinics
		}
	}

	return lo.Map(entries, func(e directoryEntry, _ int) domain.Clinic {
		return domain.Clinic{ID: e.ID, Name: e.displayName()}
	}), nil
}

// InProgram filters the directory down to in-program clinics: names that
// match a program brand and do not match a decommissioned location.
func InProgram(clinics []domain.Clinic) []domain.Clinic {
	return lo.Filter(clinics, func(c domain.Clinic, _ int) bool {
		branded := lo.SomeBy(programBrands, func(brand string) bool {
			return strings.Contains(c.Name, brand)
		})
		closed := lo.SomeBy(closedLocations, func(loc string) bool {
			return strings.Contains(c.Name, loc)
		})
		return branded && !closed
	})
}
