// Package hcl provides the concrete HCL implementation of the config.Loader
// interface. It parses content packs and character files, translates their
// blocks into the format-agnostic config.Model and keeps mutator arguments
// as cty values for the registry to decode.
//
// A content pack declares rule objects:
//
//	object "class" "wizard" {
//	  name = "Wizard"
//
//	  mutator "hit_points" {
//	    name       = "hp"
//	    depends_on = [level]
//	    per_level  = 4
//	  }
//	}
//
// Every attribute of a mutator block other than name, depends_on and
// min_level is an argument of the mutator kind named by the block label.
// depends_on accepts bare names or strings.
//
// A character file declares one or more characters:
//
//	character "ada" {
//	  abilities = { int = 16 }
//	  class "wizard" { level = 3 }
//	  item "boots" { equipped = true }
//	  selections = { "classes[0].wizard.school" = "evocation" }
//	}
package hcl
