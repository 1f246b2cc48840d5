package platform

import (
	"context"
	"fmt"
	"strconv"

	"github.com/msageha/deskflow/internal/runner"
)

// pressMenuItemProgram walks the top-level menus of a process and clicks
// the first enabled item with the given title.
const pressMenuItemProgram = `
function run(argv) {
  const se = Application('System Events');
  const procs = se.processes.whose({unixId: parseInt(argv[0], 10)});
  if (procs.length === 0) return 'missing';
  const bars = procs[0].menuBars;
  if (bars.length === 0) return 'notfound';
  const menus = bars[0].menuBarItems;
  for (let i = 0; i < menus.length; i++) {
    const items = menus[i].menus[0].menuItems.whose({name: argv[1]});
    if (items.length > 0 && items[0].enabled()) {
      items[0].click();
      return 'ok';
    }
  }
  return 'notfound';
}`

// Menus presses menu bar items through the accessibility tree.
type Menus struct {
	Tool
}

func (m Menus) PressMenuItem(ctx context.Context, pid int, title string) error {
	out, err := m.jxa(ctx, pressMenuItemProgram, strconv.Itoa(pid), title)
	if err != nil {
		return err
	}
	return menuResult(out, pid, title)
}

func menuResult(out string, pid int, title string) error {
	switch out {
	case "ok":
		return nil
	case "missing":
		return fmt.Errorf("process %d: %w", pid, runner.ErrNotFound)
	case "notfound":
		return fmt.Errorf("process %d %q: %w", pid, title, runner.ErrMenuItemNotFound)
	}
	return fmt.Errorf("press menu item %q: unexpected result %q", title, out)
}

// Spaces drives Mission Control. Mission Control.app takes a numeric
// argument: 1 shows the desktop, 2 shows the front application's
// windows, none enters Mission Control.
type Spaces struct {
	Tool
}

func (s Spaces) MissionControl(ctx context.Context) error {
	return s.run(ctx, "open", missionControlArgs("")...)
}

func (s Spaces) ApplicationWindows(ctx context.Context) error {
	return s.run(ctx, "open", missionControlArgs("2")...)
}

func (s Spaces) ShowDesktop(ctx context.Context) error {
	return s.run(ctx, "open", missionControlArgs("1")...)
}

func missionControlArgs(mode string) []string {
	args := []string{"-a", "Mission Control"}
	if mode != "" {
		args = append(args, "--args", mode)
	}
	return args
}
