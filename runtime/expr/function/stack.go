package function

import (
	"github.com/brimdata/openrec"
	"github.com/brimdata/openrec/builder"
)

// stack holds one record builder and one scratch buffer per level of
// nesting so a recursive operator never reuses the builder of a record it
// is still building.
type stack struct {
	builders []*builder.RecordBuilder
	scratch  [][]byte
}

func (s *stack) builder(depth int, typ *openrec.TypeRecord) *builder.RecordBuilder {
	for len(s.builders) <= depth {
		s.builders = append(s.builders, &builder.RecordBuilder{})
	}
	b := s.builders[depth]
	b.Reset(typ)
	return b
}

func (s *stack) buffer(depth int) []byte {
	for len(s.scratch) <= depth {
		s.scratch = append(s.scratch, nil)
	}
	return s.scratch[depth][:0]
}

// keep retains the grown buffer of a level for the next row.
func (s *stack) keep(depth int, b []byte) {
	s.scratch[depth] = b
}

// nestedType returns the record type of the field name in typ, or the open
// record if typ does not declare name as a closed record.
func nestedType(typ *openrec.TypeRecord, name []byte) *openrec.TypeRecord {
	if ftyp, ok := typ.TypeOfField(string(name)); ok {
		if rtyp := openrec.TypeRecordOf(ftyp); rtyp != nil {
			return rtyp
		}
	}
	return openrec.TypeOpenRecord
}
