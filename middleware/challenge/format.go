// utilitário pequeno para formatação rápida/consistente de valores numéricos
// em headers. Evita puxar fmt (mais pesado e genérico) só para isso e mantém
// floats sem notação científica.

package challenge

import "strconv"

func formatInt(v int) string { return strconv.Itoa(v) }

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
