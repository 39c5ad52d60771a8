package codegen

import "strconv"

func itoa(n int) string { return strconv.Itoa(n) }

func fpPlus(k int) string {
	if k == 0 {
		return "FP"
	}
	return "FP + " + itoa(k)
}

func fpMinus(k int) string { return "FP - " + itoa(k) }

func mmAt(index string) string { return "MM[" + index + "]" }
