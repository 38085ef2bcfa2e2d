//go:build linux

package healthcheck

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ProcessPresenceProbe fails when no process with a matching comm name
// has a non-empty cmdline. It scans /proc directly rather than shelling
// out to ps. A zombie's cmdline is always empty (the kernel frees it on
// exit, keeping only the exit status around), so the cmdline check is
// what excludes zombies here rather than a direct state-field check.
type ProcessPresenceProbe struct {
	Name string
}

// Check implements Probe.
func (p *ProcessPresenceProbe) Check(_ context.Context) (bool, string) {
	entries, err := os.ReadDir("/proc")
	if err != nil {
		return false, fmt.Sprintf("reading /proc: %v", err)
	}
	for _, e := range entries {
		pid, err := strconv.Atoi(e.Name())
		if err != nil {
			continue
		}
		comm, err := readComm(pid)
		if err != nil || comm != p.Name {
			continue
		}
		if hasNonEmptyCmdline(pid) {
			return true, ""
		}
	}
	return false, fmt.Sprintf("no live process named %q", p.Name)
}

// readComm parses the comm field out of /proc/[pid]/stat. The field is
// parenthesized and may itself contain spaces, so it is located by the
// last ')' rather than naive field splitting.
func readComm(pid int) (comm string, err error) {
	f, err := os.Open(fmt.Sprintf("/proc/%d/stat", pid)) // #nosec G304 - pid is an int from ReadDir
	if err != nil {
		return "", err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	if !scanner.Scan() {
		return "", fmt.Errorf("empty stat for pid %d", pid)
	}
	line := scanner.Text()
	open := strings.IndexByte(line, '(')
	closeParen := strings.LastIndexByte(line, ')')
	if open < 0 || closeParen < 0 || closeParen < open {
		return "", fmt.Errorf("malformed stat for pid %d", pid)
	}
	return line[open+1 : closeParen], nil
}

// hasNonEmptyCmdline reports whether /proc/[pid]/cmdline holds any bytes.
// A zombie's cmdline is always empty, so this is what excludes them.
func hasNonEmptyCmdline(pid int) bool {
	data, err := os.ReadFile(fmt.Sprintf("/proc/%d/cmdline", pid)) // #nosec G304 - pid is an int from ReadDir
	if err != nil {
		return false
	}
	return len(data) > 0
}
