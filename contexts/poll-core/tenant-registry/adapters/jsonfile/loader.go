package jsonfile

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	domainerrors "quorum/contexts/poll-core/tenant-registry/domain/errors"
	"quorum/contexts/poll-core/tenant-registry/ports"
)

type configRow struct {
	GuildID          string `json:"guild_id"`
	PollType         string `json:"poll_type"`
	AdminRoleID      string `json:"admin_role_id"`
	DashboardCommand string `json:"dashboard_command"`
	ScoringPolicy    string `json:"scoring_policy"`
}

// Load reads the tenant roster from a JSON file. Two rows naming the same
// (guild, poll type) pair make the whole file invalid; a silently-last-wins
// merge would hide a misconfigured roster.
func Load(path string) ([]ports.PollConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tenant config %s: %w", path, err)
	}
	var rows []configRow
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domainerrors.ErrConfigFileInvalid, path, err)
	}

	seen := make(map[string]struct{}, len(rows))
	configs := make([]ports.PollConfig, 0, len(rows))
	for index, row := range rows {
		guildID := strings.TrimSpace(row.GuildID)
		pollType := strings.TrimSpace(row.PollType)
		if guildID == "" || pollType == "" {
			return nil, fmt.Errorf("%w: row %d missing guild_id or poll_type", domainerrors.ErrConfigFileInvalid, index)
		}
		key := guildID + "|" + pollType
		if _, dup := seen[key]; dup {
			return nil, fmt.Errorf("%w: %s/%s", domainerrors.ErrDuplicateTenant, guildID, pollType)
		}
		seen[key] = struct{}{}
		configs = append(configs, ports.PollConfig{
			GuildID:          guildID,
			PollType:         pollType,
			AdminRoleID:      strings.TrimSpace(row.AdminRoleID),
			DashboardCommand: strings.TrimSpace(row.DashboardCommand),
			ScoringPolicy:    strings.ToLower(strings.TrimSpace(row.ScoringPolicy)),
		})
	}
	return configs, nil
}
