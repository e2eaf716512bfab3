package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type TenantConfig struct {
	GuildID          string `json:"guild_id"`
	PollType         string `json:"poll_type"`
	AdminRoleID      string `json:"admin_role_id,omitempty"`
	DashboardCommand string `json:"dashboard_command,omitempty"`
	ScoringPolicy    string `json:"scoring_policy,omitempty"`
}

type TenantListResponse struct {
	Items []TenantConfig `json:"items"`
}

type RegisterTenantRequest struct {
	GuildID          string `json:"guild_id"`
	PollType         string `json:"poll_type"`
	AdminRoleID      string `json:"admin_role_id,omitempty"`
	DashboardCommand string `json:"dashboard_command,omitempty"`
	ScoringPolicy    string `json:"scoring_policy,omitempty"`
}
