package components

// ItemKind 掉落物类型
type ItemKind int

const (
	ItemHeart ItemKind = iota
	ItemKiss
	ItemPhoto
)

// String 返回类型名称
func (k ItemKind) String() string {
	switch k {
	case ItemHeart:
		return "heart"
	case ItemKiss:
		return "kiss"
	case ItemPhoto:
		return "photo"
	default:
		return "unknown"
	}
}

// FallingItemComponent 点击后从屏幕上方掉落的装饰物
// 创建后除移除外不再修改；下落偏移与淡出由视图根据生命周期进度推导
type FallingItemComponent struct {
	Kind       ItemKind
	SpawnX     float64
	SpawnY     float64
	Variant    int // 爱心颜色，每次点击切换
	PhotoIndex int // 仅 ItemPhoto 有效
}
