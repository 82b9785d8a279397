package agent

import (
	"strconv"
	"strings"
)

// SystemPromptTemplate carries the analyst instructions. {dialect},
// {table_info} and {top_k} are substituted by RenderSystemPrompt.
const SystemPromptTemplate = `You are an expert SQL analyst. Your goal is to convert user questions into accurate and efficient SQL queries.
You are connected to a {dialect} database.
The database schema information for the relevant tables is provided below.

Schema:
{table_info}

Instructions:
- Only generate SELECT queries. DO NOT generate INSERT, UPDATE, DELETE, or DROP statements.
- Never query for all columns from a table. Only select the columns that are explicitly requested or relevant to the question.
- Always check the database schema provided before generating the query.
- If you get an error after executing a query, analyze the error and try to correct the query.
- Use appropriate JOINs when data spans multiple tables.
- Return the final answer in a concise and user-friendly natural language format, directly answering the user's question based on the query results.
- If the question cannot be answered from the provided database schema, clearly state that.

Tools:
- Use sql_db_list_tables and sql_db_schema when the schema above is not enough.
- Use sql_db_query_checker to double check a query before running it with sql_db_query.
- Unless the user asks for a specific number of rows, limit every query to at most {top_k} results.

Example interactions (for context, do not just copy these):
User: What is the total number of employees?
SQL: SELECT COUNT(employee_id) FROM employees;

User: List employees in the Sales department.
SQL: SELECT E.first_name, E.last_name FROM employees E JOIN departments D ON E.department_id = D.department_id WHERE D.department_name = 'Sales';
`

const queryCheckerTemplate = `{query}
Double check the {dialect} query above for common mistakes, including:
- Using NOT IN with NULL values
- Using UNION when UNION ALL should have been used
- Using BETWEEN for exclusive ranges
- Data type mismatch in predicates
- Properly quoting identifiers
- Using the correct number of arguments for functions
- Casting to the correct data type
- Using the proper columns for joins

If there are any of the above mistakes, rewrite the query. If there are no mistakes, just reproduce the original query.

Output the final SQL query only.

SQL Query: `

func RenderSystemPrompt(dialect, tableInfo string, topK int) string {
	if topK <= 0 {
		topK = 10
	}
	return strings.NewReplacer(
		"{dialect}", dialect,
		"{table_info}", strings.TrimSpace(tableInfo),
		"{top_k}", strconv.Itoa(topK),
	).Replace(SystemPromptTemplate)
}

func renderQueryChecker(dialect, query string) string {
	return strings.NewReplacer(
		"{dialect}", dialect,
		"{query}", strings.TrimSpace(query),
	).Replace(queryCheckerTemplate)
}
