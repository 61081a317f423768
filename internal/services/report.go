package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/fyerfyer/contract-filler/internal/models"
	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// RunReport 生成执行的markdown摘要
func RunReport(run *models.ContractRun) (string, error) {
	events, err := run.EventLog()
	if err != nil {
		return "", fmt.Errorf("failed to decode events: %w", err)
	}
	fields, err := run.FieldValues()
	if err != nil {
		return "", fmt.Errorf("failed to decode fields: %w", err)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "# Execução %s\n\n", run.ID)
	fmt.Fprintf(&sb, "- **Situação:** %s\n", run.Status)
	fmt.Fprintf(&sb, "- **Modelo:** %s\n", cell(run.TemplateName))
	fmt.Fprintf(&sb, "- **Gênero:** %s\n", cell(run.Gender))
	fmt.Fprintf(&sb, "- **Número do contrato:** %s\n", cell(run.ContractNumber))
	fmt.Fprintf(&sb, "- **Início:** %s\n", run.StartedAt.Format("02/01/2006 15:04:05"))
	if run.FinishedAt != nil {
		fmt.Fprintf(&sb, "- **Fim:** %s\n", run.FinishedAt.Format("02/01/2006 15:04:05"))
	}
	if run.Error != "" {
		fmt.Fprintf(&sb, "- **Erro:** %s\n", cell(run.Error))
	}

	kinds := make([]string, 0, len(fields))
	for kind := range fields {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	for _, kind := range kinds {
		fmt.Fprintf(&sb, "\n## Campos: %s\n\n| Campo | Valor |\n|---|---|\n", kind)
		names := make([]string, 0, len(fields[kind]))
		for name := range fields[kind] {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(&sb, "| %s | %s |\n", name, cell(fields[kind][name]))
		}
	}

	sb.WriteString("\n## Eventos\n\n| # | Etapa | Nível | Mensagem |\n|---|---|---|---|\n")
	for _, e := range events {
		fmt.Fprintf(&sb, "| %d | %s | %s | %s |\n", e.Seq, e.Step, e.Level, cell(eventText(e)))
	}
	return sb.String(), nil
}

// Report 返回执行的HTML报告
func (s *ContractService) Report(ctx context.Context, runID string) ([]byte, error) {
	run, err := s.GetRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	md, err := RunReport(run)
	if err != nil {
		return nil, err
	}
	return RenderHTML(md), nil
}

// RenderHTML 将markdown渲染为完整的HTML页面
func RenderHTML(md string) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	renderer := html.NewRenderer(html.RendererOptions{
		Flags: html.CommonFlags | html.CompletePage | html.HrefTargetBlank,
		Title: "Relatório de execução",
	})
	return markdown.ToHTML([]byte(md), p, renderer)
}

func eventText(e models.Event) string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + e.Fields[k]
	}
	return e.Message + " (" + strings.Join(parts, "; ") + ")"
}

// cell 转义markdown表格单元格中的内容
func cell(s string) string {
	if s == "" {
		return "-"
	}
	r := strings.NewReplacer("|", `\|`, "\n", " ", "<", "&lt;", ">", "&gt;")
	return r.Replace(s)
}
