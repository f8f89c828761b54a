package migrate

import "fmt"

// Pass carries the state of one migration call. Transforms share it instead
// of package-level globals, so concurrent migrations of independent records
// never contaminate each other's name counters or collected connections.
type Pass struct {
	// Raw is the full legacy record, deep-copied at the start of the call.
	// Transforms read sibling core files from it; nothing writes to it.
	Raw map[string]any

	defaultNames map[string]int
	processNames map[string]int
	connections  []map[string]any
	repairs      []string
	warnings     []string
}

// NewPass starts a migration pass over raw. The caller owns the copy passed
// in; the engine hands every pass a private deep copy.
func NewPass(raw map[string]any) *Pass {
	return &Pass{
		Raw:          raw,
		defaultNames: make(map[string]int),
		processNames: make(map[string]int),
	}
}

// DefaultName returns the next fallback name for a device type, "Filter 1",
// "Filter 2" and so on. Counters are per type and per pass.
func (p *Pass) DefaultName(deviceType string) string {
	p.defaultNames[deviceType]++
	return fmt.Sprintf("%s %d", deviceType, p.defaultNames[deviceType])
}

// ProcessName returns a unique data-process name by suffixing an occurrence
// counter, "Ephys preprocessing_1", "Ephys preprocessing_2" and so on.
// Process names must be unique within a processing document because the
// dependency graph is keyed by them.
func (p *Pass) ProcessName(base string) string {
	p.processNames[base]++
	return fmt.Sprintf("%s_%d", base, p.processNames[base])
}

// AddConnection collects a connection produced while upgrading device
// channels, so the enclosing transform can attach the accumulated list to
// the instrument once the devices are done.
func (p *Pass) AddConnection(conn map[string]any) {
	p.connections = append(p.connections, conn)
}

// TakeConnections returns the collected connections and resets the list.
// Each transform that produces connections drains them; leftovers never leak
// into the next core file.
func (p *Pass) TakeConnections() []map[string]any {
	conns := p.connections
	p.connections = nil
	return conns
}

// Repaired records a repair action for the migration report.
func (p *Pass) Repaired(format string, args ...any) {
	p.repairs = append(p.repairs, fmt.Sprintf(format, args...))
}

// Warn records a non-fatal observation for the migration report.
func (p *Pass) Warn(format string, args ...any) {
	p.warnings = append(p.warnings, fmt.Sprintf(format, args...))
}

// Repairs returns the repair actions recorded so far.
func (p *Pass) Repairs() []string {
	return p.repairs
}

// Warnings returns the warnings recorded so far.
func (p *Pass) Warnings() []string {
	return p.warnings
}
