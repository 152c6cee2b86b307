// Package model reads data model files into an ir.Model for reconciliation.
//
// A model directory holds either CUE files or YAML files, never both.
//
// CUE models declare entities under a top-level entity struct. Field order
// is declaration order:
//
//	package model
//
//	entity: Note: {
//		properties: [
//			{name: "id"},
//			{name: "text", index: true},
//			{name: "author", index: true, target: "User"},
//		]
//		relations: [{name: "tags", target: "Tag"}]
//	}
//
// YAML models list entities under an entities key; multiple files and
// multiple documents per file are read in lexical file order:
//
//	entities:
//	  - name: Note
//	    uid: 4858050548069557694
//	    properties:
//	      - name: id
//	      - name: text
//	        index: true
//
// A uid of -1 or "new" requests a new identity for the element.
package model
