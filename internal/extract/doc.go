// Package extract finds contact email addresses in unstructured post text.
//
// Extraction is a pure function over text: a permissive email-shaped pattern
// followed by an ordered list of rejection rules. Rules are evaluated in
// order and the first one that rejects a candidate wins, so new rules can be
// appended without changing how earlier ones behave.
//
//	x := extract.New()
//	for _, addr := range x.Extract(postText) {
//	    ...
//	}
package extract
