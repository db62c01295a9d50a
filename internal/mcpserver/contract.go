package mcpserver

// FrontmatterContract describes the frontmatter every content file must
// declare. It mirrors the checks in the schema package.
const FrontmatterContract = `# Design-to-Code Hub Frontmatter Contract

Every ` + "`" + `.mdx` + "`" + ` file under the content root MUST open with a YAML frontmatter block.
A file missing any field below is rejected; the first missing field is reported.

## Fields

| Field | Shape | Notes |
|---|---|---|
| title | string | Display name |
| description | string | One-line summary |
| domain | string | ` + "`" + `frontend` + "`" + ` or ` + "`" + `notes` + "`" + ` |
| tech | list of strings | May be empty |
| intent | list of strings | May be empty |
| category | string | Single category |
| tags | list of strings | May be empty |
| updated | string | ` + "`" + `YYYY-MM-DD` + "`" + ` exactly |
| design_intent | mapping | Must contain goal, constraints, variations |
| react_patterns | list of strings | May be empty |
| tailwind_tokens | mapping or list | Free-form |
| next_features | list of strings | May be empty |
| ts_types | list of strings | May be empty |
| ai_prompt | string | Prompt to recreate the pattern |
| links | list of {label, url} | May be empty |

Extra keys are kept and ignored by the index.

## Derived fields

- ` + "`" + `path` + "`" + `: file path under the root without extension, with a leading slash.
- ` + "`" + `slug` + "`" + `: file name without extension.
- ` + "`" + `excerpt` + "`" + `: body with code, headings, emphasis and link syntax removed, at most 200 characters.
- ` + "`" + `readingTime` + "`" + `: minutes at 300 CJK characters or 200 Latin words per minute, at least 1.

## Example

` + "```" + `mdx
---
title: Responsive card grid
description: Cards that reflow from one to four columns
domain: frontend
tech: [react, tailwind]
intent: [layout]
category: layout
tags: [cards, grid]
updated: "2024-05-01"
design_intent:
  goal: Show a collection at a glance
  constraints: [no JS layout]
  variations: [masonry]
react_patterns: [compound-components]
tailwind_tokens:
  gap: gap-4
next_features: []
ts_types: [CardProps]
ai_prompt: Build a responsive card grid with Tailwind
links:
  - label: CSS Grid
    url: https://developer.mozilla.org/docs/Web/CSS/CSS_grid_layout
---

# Responsive card grid

Body in MDX.
` + "```" + `
`
