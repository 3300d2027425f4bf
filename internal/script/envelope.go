package script

import (
	"encoding/base64"
	"strconv"
	"strings"

	"github.com/joshburkard/MECMAdminService-sub003/internal/models"
)

// Envelope is the transport document for one script invocation. It is built
// fresh per dispatch and immutable once built; Payload is what goes over the
// wire.
type Envelope struct {
	ScriptGuid    string
	ScriptVersion string
	ScriptType    int
	ScriptHash    string
	Block         *ParameterBlock
	XML           string
}

// BuildEnvelope wraps script identity, version, type and content hash
// together with the serialized parameter block and its group hash. The
// textual form is deterministic given its inputs; only the parameter-group
// GUID inside the block varies across invocations.
func BuildEnvelope(def *models.ScriptDefinition, block *ParameterBlock) *Envelope {
	var b strings.Builder
	b.WriteString(`<ScriptContent ScriptGuid="`)
	b.WriteString(attrEscaper.Replace(def.ScriptGuid))
	b.WriteString(`"><ScriptVersion>`)
	b.WriteString(attrEscaper.Replace(def.ScriptVersion))
	b.WriteString(`</ScriptVersion><ScriptType>`)
	b.WriteString(strconv.Itoa(def.ScriptType))
	b.WriteString(`</ScriptType><ScriptHash ScriptHashAlg="SHA256">`)
	b.WriteString(attrEscaper.Replace(def.ScriptHash))
	b.WriteString(`</ScriptHash>`)
	b.WriteString(block.XML)
	b.WriteString(`<ParameterGroupHash ParameterHashAlg="SHA256">`)
	b.WriteString(block.Hash)
	b.WriteString(`</ParameterGroupHash></ScriptContent>`)

	return &Envelope{
		ScriptGuid:    def.ScriptGuid,
		ScriptVersion: def.ScriptVersion,
		ScriptType:    def.ScriptType,
		ScriptHash:    def.ScriptHash,
		Block:         block,
		XML:           b.String(),
	}
}

// Payload returns the envelope encoded for transport: the UTF-8 document
// text, base64-encoded.
func (e *Envelope) Payload() string {
	return base64.StdEncoding.EncodeToString([]byte(e.XML))
}
