// Package dashboard assembles the root model with its tabs.
package dashboard

import (
	"github.com/j-veylop/sense-dashboard-tui/internal/app"
	"github.com/j-veylop/sense-dashboard-tui/internal/services"
	"github.com/j-veylop/sense-dashboard-tui/internal/ui/tabs/history"
	"github.com/j-veylop/sense-dashboard-tui/internal/ui/tabs/info"
	"github.com/j-veylop/sense-dashboard-tui/internal/ui/tabs/usage"
)

// New returns a root model with the Usage, History and Info tabs sharing
// its state.
func New(mgr *services.Manager) *app.Model {
	model := app.NewModel(mgr)

	state := model.GetState()
	model.SetTabs([]app.Tab{
		usage.New(state),   // Tab 0: Usage - chart of the polled range
		history.New(state), // Tab 1: History - fetch log
		info.New(state),    // Tab 2: Info - configuration and app info
	})
	return model
}
