package value

import (
	"fmt"
	"hash/fnv"
	"math"
)

// Identity is bitwise/pointer identity, the comparison Equal falls back
// to for null, undefined and bool values. Two numbers are identical
// only if their bit patterns match (so +0.0 and -0.0 are NOT identical,
// matching IEEE bit equality); two heap values are identical only if
// they are the same object.
func Identity(a, b Value) bool {
	if a.Kind() != b.Kind() {
		return false
	}
	switch a.Kind() {
	case KindNull, KindUndefined:
		return true
	case KindBool:
		return a.AsBool() == b.AsBool()
	case KindNum:
		return math.Float64bits(a.AsNum()) == math.Float64bits(b.AsNum())
	case KindObj:
		return a.AsObj() == b.AsObj()
	default:
		return false
	}
}

// Equal is value equality (§3): identity, plus byte-equal strings and
// endpoint-equal ranges.
func Equal(a, b Value) bool {
	if a.Kind() != b.Kind() {
		return false
	}
	switch a.Kind() {
	case KindNum:
		if a.isNanSingleton() && b.isNanSingleton() {
			return true
		}
		return a.AsNum() == b.AsNum()
	case KindObj:
		ao, bo := a.AsObj(), b.AsObj()
		if ao == bo {
			return true
		}
		if ao.Type != bo.Type {
			return false
		}
		switch ao.Type {
		case ObjString:
			as := ao.Body().(*StringObj)
			bs := bo.Body().(*StringObj)
			return as.Text == bs.Text
		case ObjRange:
			ar := ao.Body().(*Range)
			br := bo.Body().(*Range)
			return ar.From == br.From && ar.To == br.To && ar.Inclusive == br.Inclusive
		default:
			return false
		}
	default:
		return Identity(a, b)
	}
}

// Hashable reports whether v belongs to one of the kinds the spec
// restricts the equality/hash invariant to: bool, null, num, string,
// class, range.
func Hashable(v Value) bool {
	switch v.Kind() {
	case KindBool, KindNull:
		return true
	case KindNum:
		return true
	case KindObj:
		switch v.AsObj().Type {
		case ObjString, ObjClass, ObjRange:
			return true
		}
	}
	return false
}

// Hash computes a hash consistent with Equal: a == b implies
// Hash(a) == Hash(b) for every hashable kind.
func Hash(v Value) uint32 {
	switch v.Kind() {
	case KindNull:
		return 0x4e554c4c // "NULL"
	case KindUndefined:
		return 0x554e4446 // "UNDF"
	case KindBool:
		if v.AsBool() {
			return 1
		}
		return 0
	case KindNum:
		n := v.AsNum()
		if n == 0 {
			n = 0 // -0 and +0 are Equal, so they hash alike
		}
		bits := math.Float64bits(n)
		return uint32(bits) ^ uint32(bits>>32)
	case KindObj:
		o := v.AsObj()
		switch o.Type {
		case ObjString:
			return o.Body().(*StringObj).Hash
		case ObjClass:
			return FNV1a(o.Body().(*Class).Name)
		case ObjRange:
			r := o.Body().(*Range)
			h := Hash(NumVal(r.From))
			h = h*16777619 ^ Hash(NumVal(r.To))
			if r.Inclusive {
				h++
			}
			return h
		}
	}
	return 0
}

// FNV1a hashes a string the way String objects cache their hash (§3).
func FNV1a(s string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(s))
	return h.Sum32()
}

// String renders v for debugging and for `toString`/interpolation
// fallback when a class has no user override.
func String(v Value) string {
	switch v.Kind() {
	case KindNull:
		return "gansan"
	case KindUndefined:
		return "<undefined>"
	case KindBool:
		if v.AsBool() {
			return "tien"
		}
		return "galon"
	case KindNum:
		n := v.AsNum()
		if math.IsInf(n, 1) {
			return "infinity"
		}
		if math.IsInf(n, -1) {
			return "-infinity"
		}
		if math.IsNaN(n) {
			return "nan"
		}
		if n == math.Trunc(n) && math.Abs(n) < 1e15 {
			return fmt.Sprintf("%d", int64(n))
		}
		return fmt.Sprintf("%g", n)
	case KindObj:
		o := v.AsObj()
		switch o.Type {
		case ObjString:
			return o.Body().(*StringObj).Text
		case ObjClass:
			return o.Body().(*Class).Name
		case ObjRange:
			r := o.Body().(*Range)
			if r.Inclusive {
				return fmt.Sprintf("%g..%g", r.From, r.To)
			}
			return fmt.Sprintf("%g...%g", r.From, r.To)
		case ObjInstance:
			return fmt.Sprintf("instance of %s", o.Class.Name)
		case ObjList:
			return "[list]"
		case ObjMap:
			return "{map}"
		case ObjClosure:
			return fmt.Sprintf("fn %s", o.Body().(*Closure).Fn.Name)
		case ObjFiber:
			return "fiber"
		default:
			return o.Type.String()
		}
	default:
		return "?"
	}
}
