package ai

import (
	"strings"
	"text/template"

	"lead-radar/internal/domain"
)

const consultantSystem = "Você é um consultor de marketing especializado em pequenos negócios brasileiros. Responda sempre em português do Brasil de forma clara e prática."

const reportSystem = "Você é um consultor de marketing especializado em pequenos negócios brasileiros. Responda de forma clara e prática."

var insightPrompts = map[domain.InsightType]*template.Template{
	domain.InsightTypeTrends: template.Must(template.New("trends").Parse(
		`Analise as principais tendências de mercado para o nicho de {{.Niche}}{{with .City}} em {{.}}{{end}} no Brasil.

Forneça:
1. Os 5 serviços/produtos mais procurados atualmente
2. 3 tendências emergentes
3. Oportunidades sazonais para os próximos meses

Formato: JSON com as chaves "servicos_populares", "tendencias", "oportunidades"`)),
	domain.InsightTypeComplaints: template.Must(template.New("complaints").Parse(
		`Analise as principais reclamações e dores dos clientes no nicho de {{.Niche}}{{with .City}} em {{.}}{{end}}.

Forneça:
1. As 5 principais reclamações dos clientes
2. Problemas comuns com concorrentes
3. Expectativas não atendidas

Formato: JSON com as chaves "reclamacoes", "problemas_concorrentes", "expectativas"`)),
	domain.InsightTypeOpportunities: template.Must(template.New("opportunities").Parse(
		`Identifique oportunidades de negócio para o nicho de {{.Niche}}{{with .City}} em {{.}}{{end}}.

Forneça:
1. 3 nichos de público pouco explorados
2. 3 serviços/produtos com alta demanda e pouca oferta
3. 3 estratégias para se diferenciar da concorrência

Formato: JSON com as chaves "publicos", "gaps_mercado", "diferenciais"`)),
}

var strategyPrompts = map[domain.StrategyType]*template.Template{
	domain.StrategyTypeCampaign: template.Must(template.New("campaign").Parse(
		`Crie uma campanha de marketing para um negócio no nicho de {{.Niche}}.

Inclua:
1. Nome criativo da campanha
2. Objetivo principal
3. Público-alvo específico
4. Oferta irresistível
5. Chamada para ação
6. Canais recomendados

Formato: JSON com as chaves "nome", "objetivo", "publico", "oferta", "cta", "canais"`)),
	domain.StrategyTypeContent: template.Must(template.New("content").Parse(
		`Crie 5 ideias de conteúdo para redes sociais de um negócio no nicho de {{.Niche}}.

Para cada ideia inclua:
1. Tipo (Reels, Carrossel, Stories, Post)
2. Tema/Título
3. Gancho inicial (primeiras palavras)
4. Hashtags sugeridas

Formato: JSON array com as chaves "tipo", "tema", "gancho", "hashtags"`)),
	domain.StrategyTypePromotion: template.Must(template.New("promotion").Parse(
		`Crie 3 estratégias promocionais para um negócio no nicho de {{.Niche}}.

Para cada estratégia inclua:
1. Nome da promoção
2. Mecânica (como funciona)
3. Duração sugerida
4. Resultados esperados

Formato: JSON array com as chaves "nome", "mecanica", "duracao", "resultados"`)),
}

var reportPrompt = template.Must(template.New("report").Parse(
	`Gere um relatório executivo {{.PeriodText}} para um negócio do nicho {{.Niche}}.

Dados atuais:
- Total de leads: {{.Overview.TotalLeads}}
- Campanhas ativas: {{.Overview.TotalCampaigns}}
- Páginas de captura: {{.Overview.TotalPages}}
- Visitas totais: {{.Overview.TotalVisits}}
- Conversões: {{.Overview.TotalConversions}}
- Taxa de conversão: {{.Overview.ConversionRate}}%

Inclua:
1. Resumo executivo (2-3 frases)
2. Principais conquistas
3. Pontos de atenção
4. 3 recomendações práticas para a próxima semana

Use linguagem simples e direta, como se falasse com um empresário ocupado.`))

var periodText = map[domain.ReportPeriod]string{
	domain.ReportPeriodDaily:   "do dia",
	domain.ReportPeriodWeekly:  "da semana",
	domain.ReportPeriodMonthly: "do mês",
}

func render(tmpl *template.Template, data any) (string, error) {
	var sb strings.Builder
	if err := tmpl.Execute(&sb, data); err != nil {
		return "", err
	}
	return sb.String(), nil
}
