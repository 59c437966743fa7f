package ai

// RoutingRule associates a skill name with the input patterns that select
// it. The teacher's router dispatched across five log-analysis skills by
// keyword; this domain exposes exactly one skill, so no rules are needed to
// distinguish between them -- Route always resolves to suggest_query.
type RoutingRule struct {
	SkillName string
	Keywords  []string
}

// Router resolves a natural-language request to the AI skill that should
// handle it.
type Router struct {
	fallback string
}

// NewRouter creates a new Router.
func NewRouter() *Router {
	return &Router{fallback: "suggest_query"}
}

// Route returns the skill name that should handle the given query.
func (r *Router) Route(query string) string {
	return r.fallback
}

// GetRuleForSkill returns the routing rule for a named skill, or nil if the
// skill has no dedicated rule (true of the fallback skill).
func (r *Router) GetRuleForSkill(skillName string) *RoutingRule {
	return nil
}

// ListSkills returns the names of all skills the router can resolve to.
func (r *Router) ListSkills() []string {
	return []string{r.fallback}
}
