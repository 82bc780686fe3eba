// Package script loads shell commands written in Lua.
//
// A script registers commands through the global shell table:
//
//	shell.register{
//	    group = "tools",
//	    name = "greet",
//	    help = "say hello",
//	    params = {
//	        {name = "who", type = "string"},
//	        {name = "times", type = "int", default = 1},
//	    },
//	    execute = function(args)
//	        for i = 1, args.times do shell.print("hello " .. args.who) end
//	    end,
//	}
//
// Commands with an undo function are undoable. Lua runs sandboxed: only
// the base, table, string and math libraries are available, and file
// loading functions are removed.
package script
