package model

// AllModels 需要自动迁移的表（按依赖顺序）
func AllModels() []interface{} {
	return []interface{}{
		&Member{},
		&Committee{},
		&MemberCommittee{},
		&Filing{},
		&Trade{},
		&Signal{},
		&MemberSnapshot{},
		&RunMetric{},
	}
}
