package memtest

import "multibox/memory"

// Layout do cliente segundo a tabela de offsets embutida (config/offsets.yaml)
const (
	Module     = "ElementClient.exe"
	ModuleBase = 0x140000000

	charOrigin    = 0x20000000
	charBase      = 0x20100000
	namePtr       = 0x20200000
	partyBase     = 0x20300000
	worldOrigin   = 0x21000000
	worldBase     = 0x21100000
	lootContainer = 0x21200000
	lootEntries   = 0x21300000
	lootPos       = 0x21400000
	selOrigin     = 0x22000000
	selHop        = 0x22100000
	selPtr        = 0x22200000
	targetHop     = 0x22300000
	targetPtr     = 0x22400000
	locOrigin     = 0x23000000
	locHops       = 0x23100000
)

// Endereços dos campos relativos a char_base
const (
	OffCharID     = 0x6A8
	OffClass      = 0x9D0
	OffName       = 0x9C8
	OffHP         = 0x6BC
	OffMaxHP      = 0x730
	OffPosX       = 0xA00
	OffPosY       = 0x9F8
	OffPosZ       = 0x9FC
	OffFlySpeed   = 0x74C
	OffFlySpeedZ  = 0x12A8
	OffFlyStatus  = 0x9DC
	OffFlyTrigger = 0xA58
	OffTargetID   = 0x7B4
	OffParty      = 0xAA0
)

// Client monta a memória de um cliente com um personagem logado
type Client struct {
	*Fake
	PID uint32
}

// NewClient cria um cliente com âncoras, seleção e localização já ligadas
func NewClient(pid uint32, id int32, name string) *Client {
	c := &Client{Fake: NewFake(), PID: pid}

	c.PutU64(ModuleBase+0x013FAB08+0x1000, charOrigin)
	c.PutU64(charOrigin+0x68, charBase)
	c.PutU64(charBase+OffName, namePtr)
	c.PutUTF16(namePtr, name, 32)
	c.PutI32(charBase+OffCharID, id)
	c.PutI32(charBase+OffClass, 0)
	c.PutI32(charBase+OffHP, 100)
	c.PutI32(charBase+OffMaxHP, 100)
	c.SetPosition(0, 0, 0)
	c.PutF32(charBase+OffFlySpeed, 10)
	c.PutF32(charBase+OffFlySpeedZ, 0)
	c.PutI32(charBase+OffFlyStatus, 0)
	c.PutI32(charBase+OffFlyTrigger, 0)
	c.PutU32(charBase+OffTargetID, 0)
	c.PutU64(charBase+OffParty, 0)

	c.PutU64(ModuleBase+0x0148C338+0x1000, worldOrigin)
	c.PutU64(worldOrigin+0x10, worldBase)
	c.PutI32(worldBase+0x40, 0)
	c.PutU64(worldBase+0x28, lootContainer)

	c.PutU64(ModuleBase+0x013FBB40, selOrigin)
	c.PutU64(selOrigin+0x58, selHop)
	c.PutU64(selHop, selPtr)
	c.PutU64(selPtr, targetHop)
	c.PutU64(targetHop+0x10, 0)

	c.PutU64(ModuleBase+0x0149AE10+0x1000, locOrigin)
	c.PutU64(locOrigin, locHops)
	c.PutU64(locHops+0x50, locHops+0x1000)
	c.PutU64(locHops+0x1000+0x268, locHops+0x2000)
	c.PutU64(locHops+0x2000+0x128, locHops+0x3000)
	c.SetLocation(1)

	return c
}

// Accessor cria o memory.Accessor deste cliente
func (c *Client) Accessor() *memory.Accessor {
	return c.Fake.Accessor(c.PID, Module, ModuleBase)
}

// CharBase retorna o endereço de char_base
func (c *Client) CharBase() uintptr { return charBase }

func (c *Client) SetID(id int32) { c.PutI32(charBase+OffCharID, id) }
func (c *Client) SetClass(class int32) { c.PutI32(charBase+OffClass, class) }
func (c *Client) SetLocation(id int32) { c.PutI32(locHops+0x3000+0x10, id) }
func (c *Client) SetFlyStatus(v int32) { c.PutI32(charBase+OffFlyStatus, v) }
func (c *Client) SetFlyTrigger(v int32) { c.PutI32(charBase+OffFlyTrigger, v) }
func (c *Client) FlyTrigger() int32 { return c.I32(charBase + OffFlyTrigger) }
func (c *Client) FlySpeedZ() float32 { return c.F32(charBase + OffFlySpeedZ) }
func (c *Client) SetFlySpeedZ(v float32) { c.PutF32(charBase+OffFlySpeedZ, v) }
func (c *Client) TargetID() uint32 { return c.U32(charBase + OffTargetID) }
func (c *Client) SetTargetID(id uint32) { c.PutU32(charBase+OffTargetID, id) }

func (c *Client) SetPosition(x, y, z float32) {
	c.PutF32(charBase+OffPosX, x)
	c.PutF32(charBase+OffPosY, y)
	c.PutF32(charBase+OffPosZ, z)
}

func (c *Client) Position() (x, y, z float32) {
	return c.F32(charBase + OffPosX), c.F32(charBase + OffPosY), c.F32(charBase + OffPosZ)
}

// SetTarget seleciona um alvo na posição dada
func (c *Client) SetTarget(id uint32, x, y, z float32) {
	c.SetTargetID(id)
	c.PutU64(targetHop+0x10, targetPtr)
	c.PutF32(targetPtr+0xFC, x)
	c.PutF32(targetPtr+0xF4, y)
	c.PutF32(targetPtr+0xF8, z)
}

// JoinParty liga party_ptr com o líder informado
func (c *Client) JoinParty(leaderID int32, count int32) {
	c.PutU64(charBase+OffParty, partyBase)
	c.PutI32(partyBase+0x8, leaderID)
	c.PutI32(partyBase+0x28, count)
}

func (c *Client) LeaveParty() { c.PutU64(charBase+OffParty, 0) }

// SetLoot coloca itens no chão. Os slots ficam espaçados para que as leituras
// de 8 bytes com passo 4 não se sobreponham.
func (c *Client) SetLoot(points ...[2]float32) {
	c.PutI32(worldBase+0x40, int32(len(points)))
	for i, p := range points {
		entry := uintptr(lootEntries + i*0x100)
		pos := uintptr(lootPos + i*0x100)
		c.PutU64(lootContainer+uintptr(i*16), uint64(entry))
		c.PutU64(entry+0x10, uint64(pos))
		c.PutF32(pos+0x50, p[0])
		c.PutF32(pos+0x48, p[1])
	}
}
