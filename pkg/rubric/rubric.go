// Package rubric 加载评估框架（rubric）配置并渲染为提示词片段。
package rubric

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"mentor-go/pkg/log"
)

// Rubric 是评估框架的顶层结构，对应 rubric JSON 文件。
type Rubric struct {
	MentorshipRubric struct {
		Metadata struct {
			Name string `json:"name"`
		} `json:"metadata"`
		Categories []Category `json:"categories"`
	} `json:"mentorship_rubric"`
}

// Category 是评估框架中的一个评估维度及其权重。
type Category struct {
	Label  string  `json:"label"`
	Weight float64 `json:"weight"`
}

// Load 从文件读取并解析评估框架。文件不存在或解析失败时返回 nil，
// 系统在没有评估框架的情况下继续工作。
func Load(path string) *Rubric {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		log.Warnf("[Rubric] 读取评估框架文件失败: %s, err: %v", path, err)
		return nil
	}
	var r Rubric
	if err := json.Unmarshal(data, &r); err != nil {
		log.Warnf("[Rubric] 解析评估框架文件失败: %s, err: %v", path, err)
		return nil
	}
	log.Infof("[Rubric] 已加载评估框架: %s, %d 个评估维度",
		r.MentorshipRubric.Metadata.Name, len(r.MentorshipRubric.Categories))
	return &r
}

// PromptText 将评估框架渲染为注入系统提示词的文本片段。
// r 为 nil 时返回空串。
func (r *Rubric) PromptText() string {
	if r == nil {
		return ""
	}
	name := r.MentorshipRubric.Metadata.Name
	if name == "" {
		name = "Unknown"
	}
	var b strings.Builder
	b.WriteString("\n\nEVALUATION FRAMEWORK: ")
	b.WriteString(name)
	b.WriteString("\nYou should evaluate the startup across these key areas:\n")
	for _, c := range r.MentorshipRubric.Categories {
		b.WriteString(fmt.Sprintf("- %s: %.0f%% weight\n", c.Label, c.Weight*100))
	}
	b.WriteString("\nUse these evaluation criteria to inform your analysis and recommendations.\n")
	return b.String()
}
