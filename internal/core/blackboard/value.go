package blackboard

import (
	"fmt"
	"math"
)

// Kind is the closed set of value types a store key can be bound to.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindInt
	KindFloat
	KindBool
	KindString
	KindVec3
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindString:
		return "string"
	case KindVec3:
		return "vec3"
	default:
		return "invalid"
	}
}

// Vec3 is a plain 3-component vector.
type Vec3 struct {
	X, Y, Z float64
}

func (v Vec3) Add(o Vec3) Vec3         { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }
func (v Vec3) Sub(o Vec3) Vec3         { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }
func (v Vec3) Scale(f float64) Vec3    { return Vec3{v.X * f, v.Y * f, v.Z * f} }
func (v Vec3) Length() float64         { return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z) }
func (v Vec3) Distance(o Vec3) float64 { return v.Sub(o).Length() }

// Primitive constrains the generic accessors to the storable kinds.
type Primitive interface {
	int64 | float64 | bool | string | Vec3
}

// Value is a tagged union of the storable kinds.
type Value struct {
	kind Kind
	i    int64
	f    float64
	b    bool
	s    string
	v    Vec3
}

func Int(i int64) Value     { return Value{kind: KindInt, i: i} }
func Float(f float64) Value { return Value{kind: KindFloat, f: f} }
func Bool(b bool) Value     { return Value{kind: KindBool, b: b} }
func String(s string) Value { return Value{kind: KindString, s: s} }
func V3(v Vec3) Value       { return Value{kind: KindVec3, v: v} }

func (v Value) Kind() Kind { return v.kind }

func (v Value) Int() int64     { return v.i }
func (v Value) Float() float64 { return v.f }
func (v Value) Bool() bool     { return v.b }
func (v Value) Str() string    { return v.s }
func (v Value) Vec3() Vec3     { return v.v }

// Any unwraps the value into its Go representation.
func (v Value) Any() any {
	switch v.kind {
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindBool:
		return v.b
	case KindString:
		return v.s
	case KindVec3:
		return v.v
	default:
		return nil
	}
}

func (v Value) String() string {
	if v.kind == KindInvalid {
		return "<invalid>"
	}
	return fmt.Sprintf("%v", v.Any())
}

// ValueOf converts a Go value into a Value. Integer and float widths are
// normalised to int64 and float64; anything else is rejected.
func ValueOf(x any) (Value, error) {
	switch t := x.(type) {
	case Value:
		return t, nil
	case int:
		return Int(int64(t)), nil
	case int8:
		return Int(int64(t)), nil
	case int16:
		return Int(int64(t)), nil
	case int32:
		return Int(int64(t)), nil
	case int64:
		return Int(t), nil
	case uint8:
		return Int(int64(t)), nil
	case uint16:
		return Int(int64(t)), nil
	case uint32:
		return Int(int64(t)), nil
	case float32:
		return Float(float64(t)), nil
	case float64:
		return Float(t), nil
	case bool:
		return Bool(t), nil
	case string:
		return String(t), nil
	case Vec3:
		return V3(t), nil
	case []float64:
		if len(t) == 3 {
			return V3(Vec3{t[0], t[1], t[2]}), nil
		}
	case map[string]any:
		return vec3FromMap(t)
	}
	return Value{}, fmt.Errorf("blackboard: unsupported value type %T", x)
}

func vec3FromMap(m map[string]any) (Value, error) {
	var out Vec3
	for key, dst := range map[string]*float64{"x": &out.X, "y": &out.Y, "z": &out.Z} {
		raw, ok := m[key]
		if !ok {
			return Value{}, fmt.Errorf("blackboard: vec3 missing %q", key)
		}
		switch n := raw.(type) {
		case float64:
			*dst = n
		case int:
			*dst = float64(n)
		case int64:
			*dst = float64(n)
		default:
			return Value{}, fmt.Errorf("blackboard: vec3 component %q has type %T", key, raw)
		}
	}
	return V3(out), nil
}

func valueFromPrimitive[T Primitive](x T) Value {
	switch t := any(x).(type) {
	case int64:
		return Int(t)
	case float64:
		return Float(t)
	case bool:
		return Bool(t)
	case string:
		return String(t)
	default:
		return V3(any(x).(Vec3))
	}
}

func kindOf[T Primitive]() Kind {
	var zero T
	switch any(zero).(type) {
	case int64:
		return KindInt
	case float64:
		return KindFloat
	case bool:
		return KindBool
	case string:
		return KindString
	default:
		return KindVec3
	}
}
