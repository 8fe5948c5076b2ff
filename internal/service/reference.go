package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"TickerSync/internal/config"
	"TickerSync/internal/model"
	"TickerSync/internal/repository"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ReferenceService 加载议员、委员会及其关联（CSV），按主键新建或更新
type ReferenceService struct {
	db     *gorm.DB
	cfg    config.ReferenceConfig
	logger *logrus.Logger
}

// NewReferenceService 创建参考数据服务
func NewReferenceService(db *gorm.DB, cfg config.ReferenceConfig, logger *logrus.Logger) *ReferenceService {
	return &ReferenceService{db: db, cfg: cfg, logger: logger}
}

// ReferenceCounts 各类参考数据的加载条数
type ReferenceCounts struct {
	Members          int `json:"members"`
	Committees       int `json:"committees"`
	MemberCommittees int `json:"member_committees"`
}

// Total 合计
func (c ReferenceCounts) Total() int {
	return c.Members + c.Committees + c.MemberCommittees
}

// LoadAll 读取配置的 CSV 文件并在一个事务内写入；未配置的文件跳过
func (s *ReferenceService) LoadAll(ctx context.Context) (ReferenceCounts, error) {
	var counts ReferenceCounts
	members, err := s.readMembers()
	if err != nil {
		return counts, err
	}
	committees, err := s.readCommittees()
	if err != nil {
		return counts, err
	}
	links, err := s.readMemberCommittees()
	if err != nil {
		return counts, err
	}

	err = repository.Transaction(ctx, s.db, func(r *repository.Repos) error {
		if err := r.Members.UpsertMembers(ctx, members); err != nil {
			return fmt.Errorf("写入议员失败: %w", err)
		}
		if err := r.Members.UpsertCommittees(ctx, committees); err != nil {
			return fmt.Errorf("写入委员会失败: %w", err)
		}
		if err := r.Members.UpsertMemberCommittees(ctx, links); err != nil {
			return fmt.Errorf("写入议员委员会关联失败: %w", err)
		}
		return nil
	})
	if err != nil {
		return counts, err
	}
	counts = ReferenceCounts{Members: len(members), Committees: len(committees), MemberCommittees: len(links)}
	s.logger.WithFields(logrus.Fields{
		"members":           counts.Members,
		"committees":        counts.Committees,
		"member_committees": counts.MemberCommittees,
	}).Info("参考数据加载完成")
	return counts, nil
}

func (s *ReferenceService) readMembers() ([]*model.Member, error) {
	rows, err := readCSV(s.cfg.MembersCSV, "member_id", "first", "last", "chamber", "state")
	if err != nil {
		return nil, fmt.Errorf("读取议员CSV失败: %w", err)
	}
	// 同一批次内按 member_id 去重，后出现的覆盖先出现的
	index := make(map[string]int, len(rows))
	out := make([]*model.Member, 0, len(rows))
	for _, row := range rows {
		m := &model.Member{
			MemberID: row["member_id"],
			First:    row["first"],
			Last:     row["last"],
			Chamber:  row["chamber"],
			State:    row["state"],
			District: optional(row["district"]),
			Party:    optional(row["party"]),
			Active:   true,
		}
		if i, ok := index[m.MemberID]; ok {
			out[i] = m
			continue
		}
		index[m.MemberID] = len(out)
		out = append(out, m)
	}
	return out, nil
}

func (s *ReferenceService) readCommittees() ([]*model.Committee, error) {
	rows, err := readCSV(s.cfg.CommitteesCSV, "committee_id", "name", "chamber")
	if err != nil {
		return nil, fmt.Errorf("读取委员会CSV失败: %w", err)
	}
	index := make(map[string]int, len(rows))
	out := make([]*model.Committee, 0, len(rows))
	for _, row := range rows {
		c := &model.Committee{CommitteeID: row["committee_id"], Name: row["name"], Chamber: row["chamber"]}
		if i, ok := index[c.CommitteeID]; ok {
			out[i] = c
			continue
		}
		index[c.CommitteeID] = len(out)
		out = append(out, c)
	}
	return out, nil
}

func (s *ReferenceService) readMemberCommittees() ([]*model.MemberCommittee, error) {
	rows, err := readCSV(s.cfg.MemberCommitteesCSV, "member_id", "committee_id")
	if err != nil {
		return nil, fmt.Errorf("读取议员委员会关联CSV失败: %w", err)
	}
	index := make(map[[2]string]int, len(rows))
	out := make([]*model.MemberCommittee, 0, len(rows))
	for _, row := range rows {
		mc := &model.MemberCommittee{MemberID: row["member_id"], CommitteeID: row["committee_id"], Role: optional(row["role"])}
		key := [2]string{mc.MemberID, mc.CommitteeID}
		if i, ok := index[key]; ok {
			out[i] = mc
			continue
		}
		index[key] = len(out)
		out = append(out, mc)
	}
	return out, nil
}

// readCSV 按表头读取为 map 列表；path 为空返回 nil。required 列缺失或为空时报错
func readCSV(path string, required ...string) ([]map[string]string, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true
	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}
	for _, col := range required {
		if !slices.Contains(header, col) {
			return nil, fmt.Errorf("%s缺少列%s", path, col)
		}
	}

	var out []map[string]string
	for line := 2; ; line++ {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		row := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(rec) {
				row[col] = strings.TrimSpace(rec[i])
			}
		}
		for _, col := range required {
			if row[col] == "" {
				return nil, fmt.Errorf("%s第%d行列%s为空", path, line, col)
			}
		}
		out = append(out, row)
	}
	return out, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
