package preflight

import (
	"fmt"
	"strings"
)

// NotDelegatedError reports a zone apex with no reachable NS records.
type NotDelegatedError struct {
	Zone string
	Err  error
}

func (e NotDelegatedError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("zone %q is not delegated: %v", e.Zone, e.Err)
	}
	return fmt.Sprintf("zone %q is not delegated: no NS records", e.Zone)
}

func (e NotDelegatedError) Unwrap() error {
	return e.Err
}

// DelegationMismatchError reports a zone apex whose live NS set has no
// overlap with the name servers assigned to the managed zone.
type DelegationMismatchError struct {
	Zone string
	Want []string
	Got  []string
}

func (e DelegationMismatchError) Error() string {
	return fmt.Sprintf("zone %q is delegated to [%s], expected one of [%s]",
		e.Zone, strings.Join(e.Got, ", "), strings.Join(e.Want, ", "))
}

// RecordMismatchError reports a record that does not resolve to the expected
// address.
type RecordMismatchError struct {
	Name string
	Want string
	Got  []string
	Err  error
}

func (e RecordMismatchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("record %q does not resolve: %v", e.Name, e.Err)
	}
	return fmt.Sprintf("record %q resolves to [%s], expected %s",
		e.Name, strings.Join(e.Got, ", "), e.Want)
}

func (e RecordMismatchError) Unwrap() error {
	return e.Err
}
