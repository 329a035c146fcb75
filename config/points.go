package config

// Modos de ponto de teleporte
const (
	ModeSolo  = "solo"
	ModeParty = "party"
)

type XY struct {
	X float32 `yaml:"x"`
	Y float32 `yaml:"y"`
}

type XYZ struct {
	X float32 `yaml:"x"`
	Y float32 `yaml:"y"`
	Z float32 `yaml:"z"`
}

// Point é um destino fixo de teleporte (LONG, EXIT, SO, GO)
type Point struct {
	Target XYZ    `yaml:"target"`
	Mode   string `yaml:"mode"`
}

// DungeonPoint é um gatilho de rota: quem estiver na caixa do gatilho vai para Target
type DungeonPoint struct {
	Name      string  `yaml:"name"`
	Trigger   XY      `yaml:"trigger"`
	Target    XYZ     `yaml:"target"`
	Radius    float32 `yaml:"radius"`
	CheckLoot bool    `yaml:"check_loot"`
	Mode      string  `yaml:"mode"`
}

// InTrigger verifica a caixa |dx|,|dy| <= radius
func (p DungeonPoint) InTrigger(x, y float32) bool {
	return abs(x-p.Trigger.X) <= p.Radius && abs(y-p.Trigger.Y) <= p.Radius
}

func abs(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

// Nomes dos pontos especiais
const (
	PointLongLeft  = "long_left"
	PointLongRight = "long_right"
	PointExit      = "exit"
	PointSO        = "so"
	PointGO        = "go"
)

// DefaultPoints retorna os pontos especiais
func DefaultPoints() map[string]Point {
	return map[string]Point{
		PointLongLeft:  {Target: XYZ{-100, 200, 250}, Mode: ModeSolo},
		PointLongRight: {Target: XYZ{100, 200, 250}, Mode: ModeSolo},
		PointExit:      {Target: XYZ{0, 300, 260}, Mode: ModeParty},
		PointSO:        {Target: XYZ{-50, -50, 230}, Mode: ModeSolo},
		PointGO:        {Target: XYZ{50, 50, 230}, Mode: ModeSolo},
	}
}

func route(name string, tx, ty, x, y, z, radius float32) DungeonPoint {
	return DungeonPoint{
		Name:      name,
		Trigger:   XY{tx, ty},
		Target:    XYZ{x, y, z},
		Radius:    radius,
		CheckLoot: true,
		Mode:      ModeParty,
	}
}

// DefaultDungeonPoints retorna a rota padrão da instância
func DefaultDungeonPoints() []DungeonPoint {
	return []DungeonPoint{
		route("0 FROST", -210, 282, -210, 183, 255, 30),
		route("1 GUARD", -210, 183, -313, 187, 261, 30),
		route("2 GUARD", -313, 187, -309, 106, 261, 30),
		route("3 GUARD", -309, 106, -160, 267, 250, 30),
		route("4 BOSS 1", -160, 267, -50, 267, 232, 30),
		route("5 GUARD", -50, 267, -210, -83, 264, 50),
		route("6 GUARD", -210, -83, -210, -186, 278, 50),
		route("7 GUARD", -210, -186, -111, -276, 282, 50),
		route("8 NPCQ 2", -111, -276, -12, -276, 273, 50),
		route("9 NPCQ 3", -12, -276, 158, -94, 274, 50),
		route("10 GUARD", 158, -94, 265, -146, 278, 50),
		route("11 GUARD 4", 265, -146, 340, -10, 280, 50),
		route("12 BOSS 5", 340, -10, 269, 52, 287, 50),
		route("13 BOSS 6", 269, 52, 340, 202, 280, 50),
		route("14 GUARD", 340, 202, 282, 354, 287, 50),
		route("15 BOSS 7", 282, 354, 367, 327, 276, 50),
		route("16 GUARD", 367, 327, 32, -117, 274, 50),
		route("17 BOSS 8", 32, -117, 2, 19, 267, 50),
		route("18 BOSS 9", 2, 19, -90, 153, 283, 50),
	}
}
