// Package params encodes typed request parameters into query strings and
// url-encoded form bodies.
//
// Parameters keep their declaration order on the wire, so identical input
// always produces identical output:
//
//	vals, err := params.Encoder{Lists: params.Bracketed}.Encode(
//		params.P("firstName", "John"),
//		params.P("organization", []string{"ESA", "NASA"}),
//		params.P("age", 51),
//	)
//	// firstName=John&organization%5B%5D=ESA&organization%5B%5D=NASA&age=51
//	u.RawQuery = vals.Query()
//
// Absent values (nil, nil pointers, nil slices) are omitted rather than sent
// as empty placeholders. Enumerations are written by label. A struct passed
// through Bag contributes one parameter per field.
//
// Parse and Decode reverse the process for either list style.
package params
