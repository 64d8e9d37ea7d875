package blendscript

const processTemplate = `# Generated by mcexport. Edits are overwritten when the job is prepared again.
import sys
import traceback

import bpy

ADDON_MODULE = {{py .AddonModule}}
ADDON_PATH = {{py .AddonPath}}


def ensure_addon():
    if ADDON_MODULE in bpy.context.preferences.addons:
        return
    if ADDON_PATH:
        bpy.ops.preferences.addon_install(filepath=ADDON_PATH)
    bpy.ops.preferences.addon_enable(module=ADDON_MODULE)


def main():
    ensure_addon()
    bpy.ops.{{.Namespace}}.{{.SetupOperator}}(
        use_scene_settings={{pybool .Settings.UseSceneSettings}},
        base_output_dir={{py .BaseOutputDir}},
        loop_extend_frames={{pybool .Settings.LoopExtendFrames}},
        hold_frames={{.Settings.HoldFrames}},
    )
    bpy.ops.{{.Namespace}}.{{.RenderOperator}}()
    bpy.ops.wm.save_as_mainfile(filepath={{py .SavePath}})


try:
    main()
except Exception:
    traceback.print_exc()
    print("ERROR: multi-channel export failed")
    sys.exit(1)
`

const verifyTemplate = `# Generated by mcexport verify.
import os
import sys

import bpy

ADDON_MODULE = {{py .AddonModule}}
DEFAULT_ADDON_PATH = {{py .AddonPath}}
OPERATORS = ({{range .Operators}}{{py .}}, {{end}})


def fail(message):
    print("ERROR: " + message)
    sys.exit(1)


def addon_path():
    argv = sys.argv
    if "--" in argv:
        extra = argv[argv.index("--") + 1:]
        if extra:
            return extra[0]
    return DEFAULT_ADDON_PATH


def run(path):
    if not path:
        fail("No addon path provided")
    print("Testing addon loading from: " + path)
    if not os.path.exists(path):
        fail("Addon path does not exist: " + path)

    try:
        bpy.ops.preferences.addon_install(filepath=path)
        print("Addon installed successfully")
    except Exception as exc:
        fail("Failed to install addon: %s" % exc)

    try:
        bpy.ops.preferences.addon_enable(module=ADDON_MODULE)
        print("Addon enabled successfully")
    except Exception as exc:
        fail("Failed to enable addon: %s" % exc)

    if ADDON_MODULE not in bpy.context.preferences.addons:
        fail("Addon not in enabled addons list")

    for name in OPERATORS:
        if not hasattr(bpy.ops.{{.Namespace}}, name):
            fail(name + " operator not registered")
    print("All operators registered successfully")
    print({{py .Marker}})


run(addon_path())
`
