package bootstrap

type Department struct {
	ID   int
	Name string
}

type Employee struct {
	ID           int
	FirstName    string
	LastName     string
	Email        string
	PhoneNumber  string
	HireDate     string
	JobID        string
	Salary       float64
	DepartmentID int
}

type Project struct {
	ID           int
	Name         string
	StartDate    string
	EndDate      string
	Budget       float64
	DepartmentID int
}

var Departments = []Department{
	{ID: 1, Name: "Sales"},
	{ID: 2, Name: "Marketing"},
	{ID: 3, Name: "Engineering"},
	{ID: 4, Name: "Human Resources"},
	{ID: 5, Name: "Finance"},
}

var Employees = []Employee{
	{ID: 101, FirstName: "John", LastName: "Doe", Email: "john.doe@example.com", PhoneNumber: "123-456-7890", HireDate: "2020-01-15", JobID: "SE_MGR", Salary: 90000.00, DepartmentID: 3},
	{ID: 102, FirstName: "Jane", LastName: "Smith", Email: "jane.smith@example.com", PhoneNumber: "987-654-3210", HireDate: "2021-03-20", JobID: "SALES_REP", Salary: 60000.00, DepartmentID: 1},
	{ID: 103, FirstName: "Peter", LastName: "Jones", Email: "peter.jones@example.com", PhoneNumber: "555-123-4567", HireDate: "2019-07-01", JobID: "DEV", Salary: 75000.00, DepartmentID: 3},
	{ID: 104, FirstName: "Alice", LastName: "Williams", Email: "alice.w@example.com", PhoneNumber: "111-222-3333", HireDate: "2022-05-10", JobID: "HR_REP", Salary: 55000.00, DepartmentID: 4},
	{ID: 105, FirstName: "Bob", LastName: "Johnson", Email: "bob.j@example.com", PhoneNumber: "444-555-6666", HireDate: "2020-11-25", JobID: "FIN_ANALYST", Salary: 80000.00, DepartmentID: 5},
	{ID: 106, FirstName: "Charlie", LastName: "Brown", Email: "charlie.b@example.com", PhoneNumber: "777-888-9999", HireDate: "2023-01-01", JobID: "SALES_MGR", Salary: 70000.00, DepartmentID: 1},
}

var Projects = []Project{
	{ID: 1, Name: "Project Alpha", StartDate: "2023-01-01", EndDate: "2023-06-30", Budget: 150000.00, DepartmentID: 3},
	{ID: 2, Name: "Project Beta", StartDate: "2023-03-15", EndDate: "2023-09-30", Budget: 200000.00, DepartmentID: 3},
	{ID: 3, Name: "Marketing Campaign A", StartDate: "2023-02-01", EndDate: "2023-04-30", Budget: 50000.00, DepartmentID: 2},
	{ID: 4, Name: "Sales Strategy 2024", StartDate: "2023-10-01", EndDate: "2024-03-31", Budget: 75000.00, DepartmentID: 1},
}
