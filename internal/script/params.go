package script

import (
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/joshburkard/MECMAdminService-sub003/internal/models"
)

// ParameterBlock is the serialized parameter group for one invocation. Hash
// is empty when the block carries no entries.
type ParameterBlock struct {
	GroupID     string
	Assignments []models.ParameterAssignment
	XML         string
	Hash        string
}

var attrEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

// EncodeParameters resolves caller-supplied arguments against a script's
// schema and serializes them into the canonical parameter block. With a
// schema, assignments follow declaration order, hidden parameters always
// take their declared default, and a missing required non-hidden parameter
// fails before anything is serialized or hashed. Without a schema the raw
// arguments are trusted as-is, ordered by name.
//
// groupID binds every assignment to the invocation's parameter group; pass
// the empty string to mint a fresh one.
func EncodeParameters(schema *Schema, args map[string]string, groupID string) (*ParameterBlock, error) {
	if groupID == "" {
		groupID = uuid.New().String()
	}

	var assignments []models.ParameterAssignment
	if schema != nil {
		for _, spec := range schema.Params {
			if spec.Hidden {
				continue
			}
			if _, ok := args[spec.Name]; !ok && spec.Required {
				return nil, &MissingParameterError{Parameter: spec.Name}
			}
		}
		for _, spec := range schema.Params {
			value := spec.DefaultValue
			if !spec.Hidden {
				value = args[spec.Name]
			}
			assignments = append(assignments, models.ParameterAssignment{
				GroupID: groupID,
				Name:    spec.Name,
				Type:    spec.Type,
				Value:   value,
			})
		}
	} else {
		names := make([]string, 0, len(args))
		for name := range args {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			assignments = append(assignments, models.ParameterAssignment{
				GroupID: groupID,
				Name:    name,
				Type:    "System.String",
				Value:   args[name],
			})
		}
	}

	block := &ParameterBlock{
		GroupID:     groupID,
		Assignments: assignments,
		XML:         serializeBlock(groupID, assignments),
	}
	if len(assignments) > 0 {
		block.Hash = HashParameterBlock(block.XML)
	}
	return block, nil
}

// serializeBlock renders the exact text the remote agent hashes and
// verifies. The layout is fixed; every value goes through attribute
// escaping.
func serializeBlock(groupID string, assignments []models.ParameterAssignment) string {
	var b strings.Builder
	b.WriteString("<ScriptParameters>")
	for _, a := range assignments {
		b.WriteString(`<ScriptParameter ParameterGroupGuid="`)
		b.WriteString(attrEscaper.Replace(groupID))
		b.WriteString(`" ParameterGroupName="PG_`)
		b.WriteString(attrEscaper.Replace(groupID))
		b.WriteString(`" ParameterName="`)
		b.WriteString(attrEscaper.Replace(a.Name))
		b.WriteString(`" ParameterType="`)
		b.WriteString(attrEscaper.Replace(a.Type))
		b.WriteString(`" ParameterValue="`)
		b.WriteString(attrEscaper.Replace(a.Value))
		b.WriteString(`"/>`)
	}
	b.WriteString("</ScriptParameters>")
	return b.String()
}
