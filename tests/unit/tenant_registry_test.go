package unit

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	tenantregistry "quorum/contexts/poll-core/tenant-registry"
	"quorum/contexts/poll-core/tenant-registry/adapters/jsonfile"
	tenanterrors "quorum/contexts/poll-core/tenant-registry/domain/errors"
	"quorum/contexts/poll-core/tenant-registry/ports"
	httptransport "quorum/contexts/poll-core/tenant-registry/transport/http"
)

func TestTenantResolveAndRegister(t *testing.T) {
	module := tenantregistry.NewInMemoryModule([]ports.PollConfig{
		{GuildID: "guild-1", PollType: "trivia", ScoringPolicy: "any_overlap"},
	}, nil)
	ctx := context.Background()

	config, err := module.Handler.GetTenantHandler(ctx, "guild-1", "trivia")
	if err != nil {
		t.Fatalf("get tenant failed: %v", err)
	}
	if config.ScoringPolicy != "any_overlap" {
		t.Fatalf("unexpected policy: %s", config.ScoringPolicy)
	}

	if _, err := module.Handler.GetTenantHandler(ctx, "guild-1", "prediction"); !errors.Is(err, tenanterrors.ErrUnknownTenant) {
		t.Fatalf("expected ErrUnknownTenant, got %v", err)
	}

	registered, err := module.Handler.RegisterTenantHandler(ctx, httptransport.RegisterTenantRequest{
		GuildID:       "guild-1",
		PollType:      "prediction",
		ScoringPolicy: "EXACT_MATCH",
	})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if registered.ScoringPolicy != "exact_match" {
		t.Fatalf("expected normalized policy, got %s", registered.ScoringPolicy)
	}
	if _, err := module.Handler.GetTenantHandler(ctx, "guild-1", "prediction"); err != nil {
		t.Fatalf("resolve after register failed: %v", err)
	}

	if _, err := module.Handler.RegisterTenantHandler(ctx, httptransport.RegisterTenantRequest{
		GuildID:       "guild-1",
		PollType:      "quiz",
		ScoringPolicy: "bogus",
	}); !errors.Is(err, tenanterrors.ErrInvalidTenant) {
		t.Fatalf("expected ErrInvalidTenant for bogus policy, got %v", err)
	}
	if _, err := module.Handler.RegisterTenantHandler(ctx, httptransport.RegisterTenantRequest{
		GuildID: " ",
	}); !errors.Is(err, tenanterrors.ErrInvalidTenant) {
		t.Fatalf("expected ErrInvalidTenant for blank guild, got %v", err)
	}

	list, err := module.Handler.ListTenantsHandler(ctx)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(list.Items) != 2 {
		t.Fatalf("expected 2 tenants, got %d", len(list.Items))
	}
}

func TestTenantFileLoader(t *testing.T) {
	dir := t.TempDir()

	valid := filepath.Join(dir, "tenants.json")
	payload := `[
		{"guild_id": "guild-1", "poll_type": "trivia", "admin_role_id": "role-9", "dashboard_command": "standings", "scoring_policy": "Any_Overlap"},
		{"guild_id": "guild-2", "poll_type": "trivia"}
	]`
	if err := os.WriteFile(valid, []byte(payload), 0o600); err != nil {
		t.Fatalf("write config failed: %v", err)
	}
	configs, err := jsonfile.Load(valid)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(configs) != 2 {
		t.Fatalf("expected 2 configs, got %d", len(configs))
	}
	if configs[0].ScoringPolicy != "any_overlap" || configs[0].AdminRoleID != "role-9" {
		t.Fatalf("unexpected first config: %+v", configs[0])
	}

	duplicated := filepath.Join(dir, "dup.json")
	payload = `[
		{"guild_id": "guild-1", "poll_type": "trivia"},
		{"guild_id": "guild-1", "poll_type": "trivia"}
	]`
	if err := os.WriteFile(duplicated, []byte(payload), 0o600); err != nil {
		t.Fatalf("write config failed: %v", err)
	}
	if _, err := jsonfile.Load(duplicated); !errors.Is(err, tenanterrors.ErrDuplicateTenant) {
		t.Fatalf("expected ErrDuplicateTenant, got %v", err)
	}

	malformed := filepath.Join(dir, "broken.json")
	if err := os.WriteFile(malformed, []byte("{not json"), 0o600); err != nil {
		t.Fatalf("write config failed: %v", err)
	}
	if _, err := jsonfile.Load(malformed); !errors.Is(err, tenanterrors.ErrConfigFileInvalid) {
		t.Fatalf("expected ErrConfigFileInvalid, got %v", err)
	}
}
