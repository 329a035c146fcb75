package character

// Role é a classe do personagem lida de char_class
type Role int

const (
	Warrior Role = iota
	Mage
	Shaman
	Druid
	Tank
	Assassin
	Archer
	Cleric
	Guardian
	Mystic
	Unknown
)

var roleNames = [...]string{
	Warrior:  "warrior",
	Mage:     "mage",
	Shaman:   "shaman",
	Druid:    "druid",
	Tank:     "tank",
	Assassin: "assassin",
	Archer:   "archer",
	Cleric:   "cleric",
	Guardian: "guardian",
	Mystic:   "mystic",
	Unknown:  "unknown",
}

func (r Role) String() string {
	if r < 0 || int(r) >= len(roleNames) {
		return "unknown"
	}
	return roleNames[r]
}

// RoleFromClass converte o id de classe do jogo
func RoleFromClass(class int32) Role {
	if class < 0 || class >= int32(Unknown) {
		return Unknown
	}
	return Role(class)
}

// Behavior é a lógica específica de uma classe, chamada pelas ações de grupo
type Behavior interface {
	OnTick(c *Character)
	OnCombat(c *Character, targetID uint32)
}

type idle struct{}

func (idle) OnTick(*Character) {}
func (idle) OnCombat(*Character, uint32) {}

// behaviors mapeia cada classe para sua implementação. Todas as classes ainda usam idle.
var behaviors = map[Role]Behavior{
	Warrior:  idle{},
	Mage:     idle{},
	Shaman:   idle{},
	Druid:    idle{},
	Tank:     idle{},
	Assassin: idle{},
	Archer:   idle{},
	Cleric:   idle{},
	Guardian: idle{},
	Mystic:   idle{},
	Unknown:  idle{},
}

// BehaviorFor retorna o comportamento da classe
func BehaviorFor(r Role) Behavior {
	if b, ok := behaviors[r]; ok {
		return b
	}
	return idle{}
}
