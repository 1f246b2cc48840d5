package model

// SystemCommandKind enumerates the fixed window and focus actions.
type SystemCommandKind string

const (
	SystemActivateLastApplication         SystemCommandKind = "activateLastApplication"
	SystemApplicationWindows              SystemCommandKind = "applicationWindows"
	SystemMinimizeAllOpenWindows          SystemCommandKind = "minimizeAllOpenWindows"
	SystemMissionControl                  SystemCommandKind = "missionControl"
	SystemShowDesktop                     SystemCommandKind = "showDesktop"
	SystemMoveFocusToNextWindowGlobal     SystemCommandKind = "moveFocusToNextWindowGlobal"
	SystemMoveFocusToPreviousWindowGlobal SystemCommandKind = "moveFocusToPreviousWindowGlobal"
	SystemMoveFocusToNextWindow           SystemCommandKind = "moveFocusToNextWindow"
	SystemMoveFocusToPreviousWindow       SystemCommandKind = "moveFocusToPreviousWindow"
	SystemMoveFocusToNextWindowFront      SystemCommandKind = "moveFocusToNextWindowFront"
	SystemMoveFocusToPreviousWindowFront  SystemCommandKind = "moveFocusToPreviousWindowFront"
)

// AllSystemCommandKinds lists every kind in display order.
var AllSystemCommandKinds = []SystemCommandKind{
	SystemActivateLastApplication,
	SystemApplicationWindows,
	SystemMinimizeAllOpenWindows,
	SystemMoveFocusToNextWindowFront,
	SystemMoveFocusToPreviousWindowFront,
	SystemMoveFocusToNextWindow,
	SystemMoveFocusToPreviousWindow,
	SystemMoveFocusToNextWindowGlobal,
	SystemMoveFocusToPreviousWindowGlobal,
	SystemMissionControl,
	SystemShowDesktop,
}

// WindowScope is the window set a focus-navigation action considers.
type WindowScope string

const (
	ScopeAllWindows     WindowScope = "all"
	ScopeVisibleInSpace WindowScope = "visibleInSpace"
	ScopeFrontApp       WindowScope = "frontApp"
)

// FocusDirection is the cycling direction of a focus-navigation action.
type FocusDirection int

const (
	FocusNext FocusDirection = iota
	FocusPrevious
)

const focusIcon = "/System/Library/CoreServices/WidgetKit Simulator.app/Contents/Resources/AppIcon.icns"
const missionControlIcon = "/System/Applications/Mission Control.app/Contents/Resources/AppIcon.icns"

func (k SystemCommandKind) DisplayValue() string {
	switch k {
	case SystemActivateLastApplication:
		return "Activate Last Application"
	case SystemApplicationWindows:
		return "Application Windows"
	case SystemMinimizeAllOpenWindows:
		return "Minimize All Open Windows"
	case SystemMissionControl:
		return "Mission Control"
	case SystemShowDesktop:
		return "Show Desktop"
	case SystemMoveFocusToNextWindowGlobal:
		return "Move Focus to Next Window (All Windows)"
	case SystemMoveFocusToPreviousWindowGlobal:
		return "Move Focus to Previous window (All Windows)"
	case SystemMoveFocusToNextWindow:
		return "Move Focus to Next Window"
	case SystemMoveFocusToPreviousWindow:
		return "Move Focus to Previous Window"
	case SystemMoveFocusToNextWindowFront:
		return "Move Focus to Next Window of Active Application"
	case SystemMoveFocusToPreviousWindowFront:
		return "Move Focus to Previous Window of Active Application"
	}
	return string(k)
}

func (k SystemCommandKind) IconPath() string {
	switch k {
	case SystemActivateLastApplication:
		return "/System/Library/CoreServices/Family.app"
	case SystemApplicationWindows, SystemMissionControl:
		return missionControlIcon
	case SystemMinimizeAllOpenWindows, SystemShowDesktop:
		return "/System/Library/CoreServices/Dock.app/Contents/Resources/Dock.icns"
	}
	return focusIcon
}

// Valid reports whether k is a known kind.
func (k SystemCommandKind) Valid() bool {
	for _, known := range AllSystemCommandKinds {
		if k == known {
			return true
		}
	}
	return false
}

// FocusNavigation returns the scope and direction of a focus-navigation
// kind. ok is false for every other kind.
func (k SystemCommandKind) FocusNavigation() (scope WindowScope, dir FocusDirection, ok bool) {
	switch k {
	case SystemMoveFocusToNextWindowGlobal:
		return ScopeAllWindows, FocusNext, true
	case SystemMoveFocusToPreviousWindowGlobal:
		return ScopeAllWindows, FocusPrevious, true
	case SystemMoveFocusToNextWindow:
		return ScopeVisibleInSpace, FocusNext, true
	case SystemMoveFocusToPreviousWindow:
		return ScopeVisibleInSpace, FocusPrevious, true
	case SystemMoveFocusToNextWindowFront:
		return ScopeFrontApp, FocusNext, true
	case SystemMoveFocusToPreviousWindowFront:
		return ScopeFrontApp, FocusPrevious, true
	}
	return "", FocusNext, false
}
