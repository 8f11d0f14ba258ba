package session

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/angelmondragon/pos-terminal/internal/tabs"
	pkgerrors "github.com/angelmondragon/pos-terminal/pkg/errors"
	"github.com/angelmondragon/pos-terminal/pkg/logger"
)

const (
	KeyTabs        = "order_tabs"
	KeyActiveTabID = "active_tab_id"
	KeyLocationID  = "selected_location_id"
)

// KV is the durable key/value surface a till keeps its session in. Put must
// write every pair or none of them.
type KV interface {
	Put(ctx context.Context, values map[string]string) error
	Fetch(ctx context.Context, keys ...string) (map[string]string, error)
	Ping(ctx context.Context) error
}

// Adapter serializes the order session into two keys and restores it on boot.
type Adapter struct {
	kv   KV
	logg *logger.Logger
}

func NewAdapter(kv KV, logg *logger.Logger) (*Adapter, error) {
	if kv == nil {
		return nil, fmt.Errorf("state store required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Adapter{kv: kv, logg: logg}, nil
}

// Save writes the tab collection and the active id together.
func (a *Adapter) Save(ctx context.Context, session tabs.Session) error {
	payload, err := json.Marshal(session.Tabs)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode tabs")
	}
	values := map[string]string{
		KeyTabs:        string(payload),
		KeyActiveTabID: strconv.Itoa(session.ActiveTabID),
	}
	if err := a.kv.Put(ctx, values); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist session")
	}
	return nil
}

// Load restores the last saved session. Missing or unreadable data yields a
// nil session so the caller starts from the default one; only a failing store
// is reported as an error.
func (a *Adapter) Load(ctx context.Context) (*tabs.Session, error) {
	values, err := a.kv.Fetch(ctx, KeyTabs, KeyActiveTabID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load session")
	}

	raw, ok := values[KeyTabs]
	if !ok || strings.TrimSpace(raw) == "" {
		return nil, nil
	}

	var restored []tabs.Tab
	if err := json.Unmarshal([]byte(raw), &restored); err != nil {
		a.logg.Warn(a.logg.WithField(ctx, "error", err.Error()), "session.corrupt_tabs")
		return nil, nil
	}
	if len(restored) == 0 {
		return nil, nil
	}

	activeID, err := strconv.Atoi(strings.TrimSpace(values[KeyActiveTabID]))
	if err != nil {
		a.logg.Warn(ctx, "session.corrupt_active_tab_id")
		activeID = restored[0].ID
	}

	session := tabs.Normalize(tabs.Session{Tabs: restored, ActiveTabID: activeID})
	return &session, nil
}

// SaveLocation persists the fulfillment location picked on this till.
func (a *Adapter) SaveLocation(ctx context.Context, locationID int64) error {
	if err := a.kv.Put(ctx, map[string]string{KeyLocationID: strconv.FormatInt(locationID, 10)}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist location")
	}
	return nil
}

// LoadLocation returns the persisted location, if any.
func (a *Adapter) LoadLocation(ctx context.Context) (int64, bool, error) {
	values, err := a.kv.Fetch(ctx, KeyLocationID)
	if err != nil {
		return 0, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load location")
	}
	raw, ok := values[KeyLocationID]
	if !ok {
		return 0, false, nil
	}
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, false, nil
	}
	return id, true, nil
}

// Ping checks the underlying store for readiness probes.
func (a *Adapter) Ping(ctx context.Context) error {
	return a.kv.Ping(ctx)
}
