package sqlite

import (
	"context"
	"fmt"

	"github.com/louisbranch/vendorflow/internal/services/onboarding/domain"
)

const templateColumns = `id, name, follow_up_type, escalation_level, subject_template, body_template,
	use_ai_enhancement, ai_system_prompt, ai_user_prompt_template, available_variables, active, created_at, updated_at`

// PutTemplate inserts or replaces one follow-up template.
func (s *Store) PutTemplate(ctx context.Context, template domain.Template) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	id, err := requireID("template id", template.ID)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
	INSERT INTO follow_up_templates (`+templateColumns+`)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		name = excluded.name,
		follow_up_type = excluded.follow_up_type,
		escalation_level = excluded.escalation_level,
		subject_template = excluded.subject_template,
		body_template = excluded.body_template,
		use_ai_enhancement = excluded.use_ai_enhancement,
		ai_system_prompt = excluded.ai_system_prompt,
		ai_user_prompt_template = excluded.ai_user_prompt_template,
		available_variables = excluded.available_variables,
		active = excluded.active,
		updated_at = excluded.updated_at
	`,
		id,
		template.Name,
		string(template.Type),
		template.EscalationLevel,
		template.SubjectTemplate,
		template.BodyTemplate,
		boolInt(template.UseAIEnhancement),
		template.AISystemPrompt,
		template.AIUserPromptTemplate,
		template.AvailableVariables,
		boolInt(template.Active),
		toMillis(template.CreatedAt),
		toMillis(template.UpdatedAt),
	)
	if err != nil {
		return writeErr(err, "put follow-up template")
	}
	return nil
}

// GetTemplate loads one template by id.
func (s *Store) GetTemplate(ctx context.Context, id string) (domain.Template, error) {
	if err := s.ready(ctx); err != nil {
		return domain.Template{}, err
	}
	row := s.db.QueryRowContext(ctx, `SELECT `+templateColumns+` FROM follow_up_templates WHERE id = ?`, id)
	template, err := scanTemplate(row.Scan)
	if err != nil {
		return domain.Template{}, notFoundOr(err, "get follow-up template")
	}
	return template, nil
}

// GetActiveTemplate loads the active template for a type and level. When
// several match, the most recently updated wins.
func (s *Store) GetActiveTemplate(ctx context.Context, followUpType domain.FollowUpType, level int) (domain.Template, error) {
	if err := s.ready(ctx); err != nil {
		return domain.Template{}, err
	}
	row := s.db.QueryRowContext(ctx, `SELECT `+templateColumns+` FROM follow_up_templates
	WHERE follow_up_type = ? AND escalation_level = ? AND active = 1
	ORDER BY updated_at DESC, id
	LIMIT 1`, string(followUpType), level)
	template, err := scanTemplate(row.Scan)
	if err != nil {
		return domain.Template{}, notFoundOr(err, "get active follow-up template")
	}
	return template, nil
}

// ListTemplates lists templates ordered by type and level.
func (s *Store) ListTemplates(ctx context.Context, activeOnly bool) ([]domain.Template, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	query := `SELECT ` + templateColumns + ` FROM follow_up_templates`
	if activeOnly {
		query += ` WHERE active = 1`
	}
	query += ` ORDER BY follow_up_type, escalation_level, id`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list follow-up templates: %w", err)
	}
	defer rows.Close()

	templates := make([]domain.Template, 0)
	for rows.Next() {
		template, err := scanTemplate(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan follow-up template: %w", err)
		}
		templates = append(templates, template)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate follow-up templates: %w", err)
	}
	return templates, nil
}

func scanTemplate(scan scanner) (domain.Template, error) {
	var template domain.Template
	var followUpType string
	var useAI, active int
	var createdAt, updatedAt int64
	if err := scan(
		&template.ID,
		&template.Name,
		&followUpType,
		&template.EscalationLevel,
		&template.SubjectTemplate,
		&template.BodyTemplate,
		&useAI,
		&template.AISystemPrompt,
		&template.AIUserPromptTemplate,
		&template.AvailableVariables,
		&active,
		&createdAt,
		&updatedAt,
	); err != nil {
		return domain.Template{}, err
	}
	template.Type = domain.FollowUpType(followUpType)
	template.UseAIEnhancement = useAI == 1
	template.Active = active == 1
	template.CreatedAt = fromMillis(createdAt)
	template.UpdatedAt = fromMillis(updatedAt)
	return template, nil
}
