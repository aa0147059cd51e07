package value

type ObjType int

const (
	OBJ_STRING ObjType = iota
)

// Obj is a heap value owned by a Pool. Values hold non-owning handles.
type Obj struct {
	Type ObjType
	Str  string
}

func (o *Obj) String() string {
	switch o.Type {
	case OBJ_STRING:
		return o.Str
	default:
		return "None"
	}
}

// Pool owns every Obj for its lifetime and keeps the string intern table.
// The table guarantees at most one OBJ_STRING per distinct content, so
// string equality reduces to handle identity.
type Pool struct {
	objects []*Obj
	strings map[string]*Obj
}

func NewPool() *Pool {
	return &Pool{
		strings: make(map[string]*Obj),
	}
}

func (p *Pool) InternString(s string) *Obj {
	if o, ok := p.strings[s]; ok {
		return o
	}
	o := &Obj{Type: OBJ_STRING, Str: s}
	p.objects = append(p.objects, o)
	p.strings[s] = o
	return o
}

func (p *Pool) StringVal(s string) Value {
	return ObjVal(p.InternString(s))
}

// Size reports the number of live objects.
func (p *Pool) Size() int {
	return len(p.objects)
}

// Free drains the pool. The intern table is cleared first; it borrows from
// the pool and must not outlive it. Objects are released in insertion order.
func (p *Pool) Free() {
	p.strings = make(map[string]*Obj)
	for i := range p.objects {
		p.objects[i] = nil
	}
	p.objects = p.objects[:0]
}
