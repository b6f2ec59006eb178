package repository

// Option applies a configuration option to the Roster.
type Option func(*Roster)

// WithHistoryWindow overrides the historical-score retention window.
func WithHistoryWindow(window int) Option {
	return func(r *Roster) {
		if window > 0 {
			r.historyWindow = window
		}
	}
}
