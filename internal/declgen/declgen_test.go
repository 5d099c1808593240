package declgen_test

import (
	"fmt"
	"strings"
	"testing"

	"dtsbundle/internal/declgen"
	"dtsbundle/internal/diag"
	"dtsbundle/internal/source"
)

// genSource прогоняет исходник через генератор деклараций
func genSource(t *testing.T, input string) (string, *diag.Bag) {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("input.ts", []byte(input))
	bag := diag.NewBag(100)
	text := declgen.Source(fs.Get(id), diag.BagReporter{Bag: bag})
	return text, bag
}

// expectDecl сверяет сгенерированную декларацию с эталоном
func expectDecl(t *testing.T, input, want string) {
	t.Helper()
	got, bag := genSource(t, input)
	if bag.HasErrors() {
		t.Fatalf("unexpected diagnostics:\n%s", diagList(bag))
	}
	if got != want {
		t.Fatalf("declaration mismatch\n--- got ---\n%s--- want ---\n%s", got, want)
	}
}

// expectDiag проверяет, что генератор выписал диагностику с данным кодом
func expectDiag(t *testing.T, input string, code diag.Code) {
	t.Helper()
	_, bag := genSource(t, input)
	for _, d := range bag.Items() {
		if d.Code == code {
			return
		}
	}
	t.Fatalf("expected diagnostic %s, got:\n%s", code.ID(), diagList(bag))
}

func diagList(bag *diag.Bag) string {
	var b strings.Builder
	for _, d := range bag.Items() {
		fmt.Fprintf(&b, "  [%s] %s\n", d.Code.ID(), d.Message)
	}
	return b.String()
}

func TestSourceFunctionSignatures(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			"simple",
			"export function add(a: number, b: number): number {\n    return a + b;\n}\n",
			"export declare function add(a: number, b: number): number;\n",
		},
		{
			"async keyword dropped",
			"export async function load(url: string): Promise<string> {\n    return fetch(url);\n}\n",
			"export declare function load(url: string): Promise<string>;\n",
		},
		{
			"generator star dropped",
			"export function* walk(): Iterator<number> {}\n",
			"export declare function walk(): Iterator<number>;\n",
		},
		{
			"generics",
			"export function wrap<T = string>(value: T): T[] {\n    return [value];\n}\n",
			"export declare function wrap<T = string>(value: T): T[];\n",
		},
		{
			"rest parameter",
			"export function fmt(pattern: string, ...args: unknown[]): string {\n    return pattern;\n}\n",
			"export declare function fmt(pattern: string, ...args: unknown[]): string;\n",
		},
		{
			"default makes optional",
			"export function greet(name: string, punct: string = \"!\"): string {\n    return name + punct;\n}\n",
			"export declare function greet(name: string, punct?: string): string;\n",
		},
		{
			"optional parameter",
			"function pick(index?: number): void {}\n",
			"declare function pick(index?: number): void;\n",
		},
		{
			"arrow type in parameter",
			"export function on(cb: (e: Event) => void): void {}\n",
			"export declare function on(cb: (e: Event) => void): void;\n",
		},
		{
			"multiline parameter list",
			"export function join(\n    left: string,\n    right: string,\n): string {\n    return left + right;\n}\n",
			"export declare function join(left: string, right: string): string;\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectDecl(t, tt.input, tt.want)
		})
	}
}

func TestSourceFunctionOverloads(t *testing.T) {
	input := `export function parse(s: string): number;
export function parse(s: string, strict: boolean): number;
export function parse(s: string, strict?: boolean): number {
    return 0;
}
`
	want := `export declare function parse(s: string): number;
export declare function parse(s: string, strict: boolean): number;
`
	expectDecl(t, input, want)
}

func TestSourceFunctionDefaultExport(t *testing.T) {
	input := "export default function init(): void {\n    setup();\n}\n"
	want := "declare function init(): void;\nexport default init;\n"
	expectDecl(t, input, want)
}

func TestSourceFunctionDiagnostics(t *testing.T) {
	tests := []struct {
		name  string
		input string
		code  diag.Code
	}{
		{"missing return type", "export function bad(a: number) {\n    return a;\n}\n", diag.GenMissingReturnType},
		{"missing param type", "export function bad(a): number {\n    return a;\n}\n", diag.GenMissingParamType},
		{"destructured param", "export function bad({ a }: { a: number }): number {\n    return a;\n}\n", diag.GenMissingParamType},
		{"anonymous default", "export default function (): void {}\n", diag.GenUnsupportedDefaultExport},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectDiag(t, tt.input, tt.code)
		})
	}
}

func TestSourceVariables(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			"const string keeps literal type",
			"export const VERSION = \"1.2.3\";\n",
			"export declare const VERSION: \"1.2.3\";\n",
		},
		{
			"const number keeps literal type",
			"const LIMIT = 100;\n",
			"declare const LIMIT: 100;\n",
		},
		{
			"let widens to primitive",
			"let counter = 0;\n",
			"declare let counter: number;\n",
		},
		{
			"var widens boolean",
			"var legacy = false;\n",
			"declare var legacy: boolean;\n",
		},
		{
			"const boolean literal",
			"export const STRICT = true;\n",
			"export declare const STRICT: true;\n",
		},
		{
			"bigint suffix",
			"const BIG = 10n;\n",
			"declare const BIG: bigint;\n",
		},
		{
			"negative number",
			"const FLOOR = -1;\n",
			"declare const FLOOR: -1;\n",
		},
		{
			"annotation wins over initializer",
			"export const limits: Map<string, number> = new Map();\n",
			"export declare const limits: Map<string, number>;\n",
		},
		{
			"as assertion supplies type",
			"const el = getRoot() as HTMLElement;\n",
			"declare const el: HTMLElement;\n",
		},
		{
			"template without substitution",
			"const s = `hello`;\n",
			"declare const s: string;\n",
		},
		{
			"multiple declarators",
			"const a = 1, b = \"two\";\n",
			"declare const a: 1;\ndeclare const b: \"two\";\n",
		},
		{
			"multiline union annotation",
			"export const mode: \"fast\" |\n    \"safe\" = \"fast\";\n",
			"export declare const mode: \"fast\" | \"safe\";\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectDecl(t, tt.input, tt.want)
		})
	}
}

func TestSourceVariableDiagnostics(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"non-literal initializer", "const mystery = compute();\n"},
		{"object initializer", "const opts = { deep: true };\n"},
		{"no annotation no initializer", "let pending;\n"},
		{"destructuring", "const { a, b } = pair;\n"},
		{"as const rejected", "const tags = [\"a\"] as const;\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, bag := genSource(t, tt.input)
			if got != "" {
				t.Errorf("expected empty output, got %q", got)
			}
			hasCode := false
			for _, d := range bag.Items() {
				if d.Code == diag.GenMissingVarType {
					hasCode = true
				}
			}
			if !hasCode {
				t.Fatalf("expected %s, got:\n%s", diag.GenMissingVarType.ID(), diagList(bag))
			}
		})
	}
}

func TestSourceClassMembers(t *testing.T) {
	input := `export class Circle {
    readonly kind = "circle";
    center: Point;
    private scale = 1;
    #id = 7;
    constructor(private radius: number, label?: string) {
        this.center = { x: 0, y: 0 };
    }
    area(): number {
        return 3.14 * this.radius * this.radius;
    }
    get diameter(): number {
        return this.radius * 2;
    }
    set diameter(value: number) {
        this.radius = value / 2;
    }
    static unit(): Circle {
        return new Circle(1);
    }
}
`
	want := `export declare class Circle {
    readonly kind: "circle";
    center: Point;
    private scale: number;
    #private;
    private radius: number;
    constructor(radius: number, label?: string);
    area(): number;
    get diameter(): number;
    set diameter(value: number);
    static unit(): Circle;
}
`
	expectDecl(t, input, want)
}

func TestSourceClassHeritage(t *testing.T) {
	input := `export class Dog extends Animal implements Pet {
    bark(): void {
        console.log("woof");
    }
}
`
	want := `export declare class Dog extends Animal implements Pet {
    bark(): void;
}
`
	expectDecl(t, input, want)
}

func TestSourceClassAbstract(t *testing.T) {
	input := `export abstract class Shape {
    abstract area(): number;
    describe(): string {
        return "shape";
    }
}
`
	want := `export declare abstract class Shape {
    abstract area(): number;
    describe(): string;
}
`
	expectDecl(t, input, want)
}

func TestSourceClassOverloads(t *testing.T) {
	input := `export class Parser {
    parse(input: string): number;
    parse(input: string, strict: boolean): number;
    parse(input: string, strict?: boolean): number {
        return 0;
    }
}
`
	want := `export declare class Parser {
    parse(input: string): number;
    parse(input: string, strict: boolean): number;
}
`
	expectDecl(t, input, want)
}

func TestSourceClassStaticBlock(t *testing.T) {
	input := `export class Boot {
    static ready = false;
    static {
        Boot.ready = true;
    }
    static flag(): boolean {
        return Boot.ready;
    }
}
`
	want := `export declare class Boot {
    static ready: boolean;
    static flag(): boolean;
}
`
	expectDecl(t, input, want)
}

func TestSourceClassDecoratorsDropped(t *testing.T) {
	input := `@sealed
export class Model {
    @observable
    state: string;
}
`
	want := `export declare class Model {
    state: string;
}
`
	expectDecl(t, input, want)
}

func TestSourceClassDefaultExport(t *testing.T) {
	input := `export default class Store {
    size(): number {
        return 0;
    }
}
`
	want := `declare class Store {
    size(): number;
}
export default Store;
`
	expectDecl(t, input, want)
}

func TestSourceClassPropertyDiagnostic(t *testing.T) {
	expectDiag(t, "export class Box {\n    content = make();\n}\n", diag.GenMissingVarType)
	expectDiag(t, "export class Box {\n    run() {\n        return 1;\n    }\n}\n", diag.GenMissingReturnType)
}

func TestSourceEnums(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			"single line",
			"export enum Direction { Up, Down }\n",
			"export declare enum Direction { Up, Down }\n",
		},
		{
			"const enum",
			"const enum Flags { A = 1, B = 2 }\n",
			"declare const enum Flags { A = 1, B = 2 }\n",
		},
		{
			"multiline body kept",
			"export enum Level {\n    Low = 0,\n    High = 10,\n}\n",
			"export declare enum Level {\n    Low = 0,\n    High = 10,\n}\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectDecl(t, tt.input, tt.want)
		})
	}
}

func TestSourceNamespaces(t *testing.T) {
	input := `export namespace geometry {
    export function area(r: number): number {
        return r * r;
    }
    export const PI = 3.14159;
}
`
	want := `export declare namespace geometry {
    export function area(r: number): number;
    export const PI: 3.14159;
}
`
	expectDecl(t, input, want)
}

func TestSourceNamespaceNested(t *testing.T) {
	input := `export namespace outer {
    export namespace inner {
        export const depth = 2;
    }
}
`
	want := `export declare namespace outer {
    export namespace inner {
        export const depth: 2;
    }
}
`
	expectDecl(t, input, want)
}

func TestSourceModuleNormalized(t *testing.T) {
	input := `module utils {
    export function id(x: string): string {
        return x;
    }
}
`
	want := `declare namespace utils {
    export function id(x: string): string;
}
`
	expectDecl(t, input, want)
}

func TestSourceVerbatimForms(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			"interface",
			"export interface Options {\n    name: string;\n    deep?: boolean;\n}\n",
			"export interface Options {\n    name: string;\n    deep?: boolean;\n}\n",
		},
		{
			"type alias",
			"export type Mode = \"fast\" | \"safe\";\n",
			"export type Mode = \"fast\" | \"safe\";\n",
		},
		{
			"imports and reexports",
			"import { Foo } from \"./foo\";\nimport type { Opts } from \"./opts\";\nexport { Bar } from \"./bar\";\nexport * from \"./baz\";\nimport \"./side\";\nexport {};\n",
			"import { Foo } from \"./foo\";\nimport type { Opts } from \"./opts\";\nexport { Bar } from \"./bar\";\nexport * from \"./baz\";\nimport \"./side\";\nexport {};\n",
		},
		{
			"export assignment",
			"export = MyLib;\n",
			"export = MyLib;\n",
		},
		{
			"export as namespace",
			"export as namespace MyLib;\n",
			"export as namespace MyLib;\n",
		},
		{
			"triple slash",
			"/// <reference types=\"node\" />\nexport {};\n",
			"/// <reference types=\"node\" />\nexport {};\n",
		},
		{
			"declare module",
			"declare module \"legacy\" {\n    export function start(): void;\n}\n",
			"declare module \"legacy\" {\n    export function start(): void;\n}\n",
		},
		{
			"declare global",
			"declare global {\n    interface Window {\n        store: unknown;\n    }\n}\n",
			"declare global {\n    interface Window {\n        store: unknown;\n    }\n}\n",
		},
		{
			"declare const",
			"declare const VERSION: string;\n",
			"declare const VERSION: string;\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectDecl(t, tt.input, tt.want)
		})
	}
}

func TestSourceDefaultExportReference(t *testing.T) {
	expectDecl(t, "export default createStore;\n", "export default createStore;\n")
	expectDecl(t, "export default app.router;\n", "export default app.router;\n")
}

func TestSourceDefaultExportExpression(t *testing.T) {
	got, bag := genSource(t, "export default 1 + 2;\n")
	if got != "" {
		t.Errorf("expected empty output, got %q", got)
	}
	found := false
	for _, d := range bag.Items() {
		if d.Code == diag.GenUnsupportedDefaultExport {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected %s, got:\n%s", diag.GenUnsupportedDefaultExport.ID(), diagList(bag))
	}
}

func TestSourceDocComments(t *testing.T) {
	input := `/**
 * Adds two numbers.
 */
export function add(a: number, b: number): number {
    return a + b;
}

/** Current schema version. */
export const SCHEMA = 3;
`
	want := `/**
 * Adds two numbers.
 */
export declare function add(a: number, b: number): number;
/** Current schema version. */
export declare const SCHEMA: 3;
`
	expectDecl(t, input, want)
}

func TestSourceDropsRuntimeStatements(t *testing.T) {
	input := `console.log("boot");
if (globalFlag) {
    run();
}
export const KEEP = 1;
`
	want := "export declare const KEEP: 1;\n"
	expectDecl(t, input, want)
}

func TestSourceEmptyInput(t *testing.T) {
	got, bag := genSource(t, "// only a comment\n")
	if got != "" {
		t.Errorf("expected empty output, got %q", got)
	}
	if bag.Len() != 0 {
		t.Errorf("expected no diagnostics, got:\n%s", diagList(bag))
	}
}
