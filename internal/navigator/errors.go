// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package navigator

import "fmt"

// NavigationError reports a page that could not be reached or whose
// expected structural root is absent. Status is the HTTP status when a
// response arrived, 0 for transport failures.
type NavigationError struct {
	URL    string
	Status int
	Err    error
}

func (e *NavigationError) Error() string {
	switch {
	case e.Err != nil && e.Status != 0:
		return fmt.Sprintf("navigating %s: status %d: %v", e.URL, e.Status, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("navigating %s: %v", e.URL, e.Err)
	default:
		return fmt.Sprintf("navigating %s: status %d", e.URL, e.Status)
	}
}

func (e *NavigationError) Unwrap() error { return e.Err }

// ElementNotFoundError reports a required selector that matched nothing
// on a reachable page. Distinct from NavigationError so operators can
// tell "site structure changed" from "network hiccup".
type ElementNotFoundError struct {
	Name     string
	Selector string
	URL      string
}

func (e *ElementNotFoundError) Error() string {
	return fmt.Sprintf("element %q (%s) not found on %s", e.Name, e.Selector, e.URL)
}
