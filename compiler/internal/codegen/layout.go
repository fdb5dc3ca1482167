package codegen

import (
	"sort"

	"github.com/xiaobogaga/joosc/compiler/internal/ast"
	"github.com/xiaobogaga/joosc/compiler/internal/semantic"
)

const (
	wordSize = 4
	// headerWords is the number of words before the first field of an object: the vtable pointer and the
	// interface row pointer. Arrays keep their length in the second word.
	headerWords = 2
)

// Layout is the object layout and dispatch ABI of a whole program: field offsets, vtable slots,
// interface selectors and type ids.
type Layout struct {
	info *semantic.Info

	fields      map[*ast.TypeDecl][]*ast.FieldDecl
	fieldIndex  map[*ast.FieldDecl]int
	vtables     map[*ast.TypeDecl][]*ast.MethodDecl
	slots       map[*ast.TypeDecl]map[string]int
	selectors   map[string]int
	selectorSeq []string
	types       []semantic.Type
	typeIDs     map[semantic.Type]int
}

func NewLayout(info *semantic.Info) *Layout {
	layout := &Layout{
		info:       info,
		fields:     map[*ast.TypeDecl][]*ast.FieldDecl{},
		fieldIndex: map[*ast.FieldDecl]int{},
		vtables:    map[*ast.TypeDecl][]*ast.MethodDecl{},
		slots:      map[*ast.TypeDecl]map[string]int{},
		selectors:  map[string]int{},
		typeIDs:    map[semantic.Type]int{},
	}
	keys := map[string]bool{}
	for _, decl := range info.Global.Types() {
		layout.TypeID(semantic.ClassType{Decl: decl})
		if !decl.IsInterface {
			continue
		}
		for key, method := range info.ClassEnv(decl).VisibleMethods() {
			if !method.IsStatic() {
				keys[key] = true
			}
		}
	}
	for key := range keys {
		layout.selectorSeq = append(layout.selectorSeq, key)
	}
	sort.Strings(layout.selectorSeq)
	for i, key := range layout.selectorSeq {
		layout.selectors[key] = i
	}
	return layout
}

// Fields returns the instance fields of decl in layout order: the fields of the superclass first, then the
// fields decl declares.
func (layout *Layout) Fields(decl *ast.TypeDecl) []*ast.FieldDecl {
	if fields, ok := layout.fields[decl]; ok {
		return fields
	}
	var fields []*ast.FieldDecl
	if super := layout.info.Supers[decl]; super != nil {
		fields = append(fields, layout.Fields(super)...)
	}
	for _, field := range decl.Fields {
		if field.IsStatic() {
			continue
		}
		layout.fieldIndex[field] = len(fields)
		fields = append(fields, field)
	}
	layout.fields[decl] = fields
	return fields
}

// FieldOffset is the byte offset of an instance field inside every object that has it.
func (layout *Layout) FieldOffset(field *ast.FieldDecl) int {
	layout.Fields(field.Owner)
	return wordSize * (layout.fieldIndex[field] + headerWords)
}

func (layout *Layout) ObjectSize(decl *ast.TypeDecl) int {
	return wordSize * (len(layout.Fields(decl)) + headerWords)
}

// Vtable returns the instance methods of a class indexed by slot. A class starts from the slots of its
// superclass; an override reuses the inherited slot and every other method takes the next one, in key
// order. Interfaces have no vtable.
func (layout *Layout) Vtable(decl *ast.TypeDecl) []*ast.MethodDecl {
	if decl == nil || decl.IsInterface {
		return nil
	}
	if vtable, ok := layout.vtables[decl]; ok {
		return vtable
	}
	var vtable []*ast.MethodDecl
	slots := map[string]int{}
	if super := layout.info.Supers[decl]; super != nil {
		vtable = append(vtable, layout.Vtable(super)...)
		for key, slot := range layout.slots[super] {
			slots[key] = slot
		}
	}
	methods := layout.info.ClassEnv(decl).VisibleMethods()
	for _, key := range sortedKeys(methods) {
		method := methods[key]
		if method.IsStatic() || method.Owner.IsInterface {
			continue
		}
		if slot, ok := slots[key]; ok {
			vtable[slot] = method
			continue
		}
		slots[key] = len(vtable)
		vtable = append(vtable, method)
	}
	layout.vtables[decl], layout.slots[decl] = vtable, slots
	return vtable
}

// Slot returns the vtable slot of the method with the given key in decl.
func (layout *Layout) Slot(decl *ast.TypeDecl, key string) (int, bool) {
	layout.Vtable(decl)
	slot, ok := layout.slots[decl][key]
	return slot, ok
}

func (layout *Layout) Selector(key string) (int, bool) {
	selector, ok := layout.selectors[key]
	return selector, ok
}

// Itable returns the implementation of every interface selector in a class, nil where the class has none.
func (layout *Layout) Itable(decl *ast.TypeDecl) []*ast.MethodDecl {
	methods := layout.info.ClassEnv(decl).VisibleMethods()
	itable := make([]*ast.MethodDecl, len(layout.selectorSeq))
	for i, key := range layout.selectorSeq {
		if method, ok := methods[key]; ok && !method.IsAbstract() && !method.IsStatic() {
			itable[i] = method
		}
	}
	return itable
}

// TypeID returns the id of a class, interface or array type, assigning the next one on first use.
func (layout *Layout) TypeID(t semantic.Type) int {
	if id, ok := layout.typeIDs[t]; ok {
		return id
	}
	id := len(layout.types)
	layout.typeIDs[t] = id
	layout.types = append(layout.types, t)
	return id
}

// Types returns every type that has an id, in id order.
func (layout *Layout) Types() []semantic.Type {
	return layout.types
}

// ArrayTypes returns the array types that have an id, in id order.
func (layout *Layout) ArrayTypes() []semantic.ArrayType {
	var arrays []semantic.ArrayType
	for _, t := range layout.types {
		if array, ok := t.(semantic.ArrayType); ok {
			arrays = append(arrays, array)
		}
	}
	return arrays
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
