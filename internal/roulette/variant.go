package roulette

// WheelVariants はスピンごとにランダムで選ばれるホイール名（見た目のみ）
var WheelVariants = []string{
	"Ruleta del Congelador",
	"Rueda Polar",
	"Tómbola Glaciar",
	"El Refri Giratorio",
	"Tundra Express",
	"Ventisca de la Suerte",
}

// VariantAt maps any index onto the fixed variant list.
func VariantAt(index int) string {
	n := len(WheelVariants)
	if n == 0 {
		return ""
	}
	index %= n
	if index < 0 {
		index += n
	}
	return WheelVariants[index]
}

func RandomVariant() string {
	if len(WheelVariants) == 0 {
		return ""
	}
	return VariantAt(pickIndex(len(WheelVariants)))
}
