package journey

import "github.com/xkilldash9x/charterbots/internal/locate"

// Candidate lists shared by several journeys, best guess first.
var (
	emailField = []locate.Locator{
		locate.CSS("input[type=email]"),
		locate.Placeholder("Email"),
		locate.Label("Email"),
		locate.Name("email"),
	}
	passwordField = []locate.Locator{
		locate.CSS("input[type=password]"),
		locate.Label("Password"),
	}
	signInButton = []locate.Locator{
		locate.Role("button", "Sign in"),
		locate.Role("button", "Log in"),
		locate.Text("Sign in"),
	}

	discardButton = []locate.Locator{
		locate.Role("button", "Cancel"),
		locate.Role("button", "Discard"),
		locate.Text("Cancel"),
		locate.Text("Discard"),
	}
	successToast = []locate.Locator{
		locate.Role("alert", ""),
		locate.Role("status", ""),
		locate.Text("Success"),
	}
)

// dashboardMarkers are the text markers of a loaded role terminal.
func dashboardMarkers(terminal string) []locate.Locator {
	return []locate.Locator{
		locate.Text(terminal + " Terminal"),
		locate.Text(terminal + " Dashboard"),
		locate.Text("Dashboard"),
	}
}

// tab is a navigation tab or link labelled name.
func tab(name string) []locate.Locator {
	return []locate.Locator{
		locate.Role("tab", name),
		locate.Role("link", name),
		locate.Role("button", name),
		locate.Text(name),
	}
}

// field is a form input known by its label.
func field(label, name string) []locate.Locator {
	return []locate.Locator{
		locate.Label(label),
		locate.Placeholder(label),
		locate.Name(name),
		locate.CSS("#" + name),
	}
}

func with(base []locate.Locator, extra ...locate.Locator) []locate.Locator {
	out := make([]locate.Locator, 0, len(base)+len(extra))
	return append(append(out, base...), extra...)
}
